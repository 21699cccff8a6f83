package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/message"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history SESSION",
		Short: "Print the full transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().Bool("copy", false, "Also copy the transcript to the clipboard")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	msgs, err := a.memory.DumpHistory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printTranscript(cmd.OutOrStdout(), msgs)

	copyOut, err := cmd.Flags().GetBool("copy")
	if err != nil {
		return fmt.Errorf("getting copy flag: %w", err)
	}
	if !copyOut || len(msgs) == 0 {
		return nil
	}
	if err := clipboard.WriteAll(plainTranscript(msgs)); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	fmt.Fprintln(os.Stderr, mutedStyle.Render(fmt.Sprintf("Copied %d messages to the clipboard.", len(msgs))))
	return nil
}

// plainTranscript renders msgs as unstyled "Label: content" lines.
func plainTranscript(msgs []*message.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Line())
		b.WriteByte('\n')
	}
	return b.String()
}
