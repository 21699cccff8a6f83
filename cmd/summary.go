package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
)

// summaryWrap is the word wrap width for rendered summaries.
const summaryWrap = 80

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary SESSION",
		Short: "Show the running summary of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummary,
	}
	cmd.Flags().Bool("raw", false, "Print the summary without markdown rendering")
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.memory.HistoryView(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if view.Summary == "" {
		fmt.Fprintln(out, mutedStyle.Render("No summary yet."))
		return nil
	}

	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return fmt.Errorf("getting raw flag: %w", err)
	}
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Summary of %s (turns 1-%d, %d staged)",
		args[0], view.CoveredUpTo, len(view.Messages))))
	if raw {
		fmt.Fprintln(out, view.Summary)
		return nil
	}

	rendered, err := renderMarkdown(view.Summary)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}

// renderMarkdown renders content with a glamour style matching the
// terminal background.
func renderMarkdown(content string) (string, error) {
	style := glamourstyles.LightStyleConfig
	if hasDarkBackground() {
		style = glamourstyles.DarkStyleConfig
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(summaryWrap),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	rendered, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return rendered, nil
}
