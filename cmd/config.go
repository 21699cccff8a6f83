package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the global configuration",
		Long: `Inspect and edit the global configuration file.

Examples:
  chatmem config path
  chatmem config set memory.token_limit 2000
  chatmem config set model.base_url http://localhost:11434/v1
  chatmem config set model.api_key '$OPENAI_API_KEY'`,
	}
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a single configuration key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			if err := cfg.SetConfigField(args[0], config.ParseValue(args[1])); err != nil {
				return err
			}

			// Reload so a bad value is reported right away.
			if _, err := config.Load(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Warning: "+err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", args[0], config.GlobalConfigPath())
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the global configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GlobalConfigPath())
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !config.IsFirstRun() {
				return fmt.Errorf("config already exists at %s", config.GlobalConfigPath())
			}
			if err := config.WriteDefaults(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.GlobalConfigPath())
			return nil
		},
	}
}
