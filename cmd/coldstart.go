package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newColdStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coldstart [SESSION...]",
		Short: "Give stored sessions without a summary their first one",
		Long: `Summarize every turn of a session that has stored messages but no
summary yet. Sessions that already have a summary are left alone.

With no arguments every stored session is checked, a few at a time.`,
		RunE: runColdStart,
	}
}

func runColdStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	ids := args
	if len(ids) == 0 {
		if err := a.memory.ColdStartAll(ctx); err != nil {
			return err
		}
		if ids, err = a.memory.Sessions(ctx); err != nil {
			return err
		}
	} else {
		for _, id := range ids {
			if err := a.memory.ColdStart(ctx, id); err != nil {
				return err
			}
		}
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No sessions stored."))
		return nil
	}
	for _, id := range ids {
		view, err := a.memory.HistoryView(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: summary covers up to turn %d; %d turns staged.\n", id, view.CoveredUpTo, len(view.Messages))
	}
	return nil
}
