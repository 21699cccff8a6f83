package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/session"
)

// previewWidth bounds the first-message column.
const previewWidth = 48

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [keyword]",
		Short: "List stored sessions",
		Long: `List every stored session, most recently active first, with its
message count, how far the summary reaches, and the first user turn.

With a keyword, only sessions whose label or messages contain every word
of it are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessions,
	}
	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var infos []*session.Info
	if len(args) == 1 {
		infos, err = a.sessions.Search(cmd.Context(), args[0])
	} else {
		infos, err = a.sessions.List(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	printSessions(cmd.OutOrStdout(), infos)
	return nil
}

func printSessions(out io.Writer, infos []*session.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No sessions yet."))
		return
	}

	idWidth := len("SESSION")
	for _, info := range infos {
		idWidth = max(idWidth, ansi.StringWidth(info.ID))
	}
	idCol := lipgloss.NewStyle().Width(idWidth + 2)
	numCol := lipgloss.NewStyle().Width(10)
	timeCol := lipgloss.NewStyle().Width(18)

	fmt.Fprintln(out, headingStyle.Render(
		idCol.Render("SESSION")+numCol.Render("MESSAGES")+numCol.Render("SUMMARY")+
			numCol.Render("STAGED")+timeCol.Render("UPDATED")+"FIRST MESSAGE"))
	fmt.Fprintln(out, mutedStyle.Render(strings.Repeat("─", idWidth+2+30+18+previewWidth)))

	for _, info := range infos {
		covered := "-"
		if info.CoveredUpTo > 0 {
			covered = fmt.Sprintf("≤%d", info.CoveredUpTo)
		}
		preview := strings.Join(strings.Fields(info.FirstMessage), " ")
		fmt.Fprintln(out,
			idCol.Render(info.ID)+
				numCol.Render(fmt.Sprintf("%d", info.MessageCount))+
				numCol.Render(covered)+
				numCol.Render(fmt.Sprintf("%d", info.Staged()))+
				timeCol.Render(info.UpdatedAt.Local().Format("2006-01-02 15:04"))+
				mutedStyle.Render(ansi.Truncate(preview, previewWidth, "…")))
	}
}
