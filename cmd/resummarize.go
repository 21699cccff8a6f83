package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resummarize SESSION",
		Short: "Fold a session's staged turns into its summary now",
		Long: `Run a compaction for SESSION regardless of the token limit.

Nothing staged is not an error. If the summarizer fails, the stored
summary and staged turns are left exactly as they were.`,
		Args: cobra.ExactArgs(1),
		RunE: runResummarize,
	}
}

func runResummarize(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID := args[0]
	if err := a.memory.ForceResummarize(cmd.Context(), sessionID); err != nil {
		return err
	}

	view, err := a.memory.HistoryView(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Summary of %s covers up to turn %d; %d turns staged.\n",
		sessionID, view.CoveredUpTo, len(view.Messages))
	return nil
}
