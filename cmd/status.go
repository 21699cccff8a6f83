package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/config"
	"github.com/guilhermegouw/chatmem/internal/debug"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, storage, and memory settings",
		Long: `Display the current chatmem status including:
  - Config file and data locations
  - Configured provider and model
  - Memory token limit, summarizer timeout, and estimator
  - Stored session counts`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if config.IsFirstRun() {
		fmt.Fprintln(out, "Status: Using defaults (no config file)")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Run 'chatmem config init' to write one.")
		fmt.Fprintln(out, "")
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	fmt.Fprintln(out, headingStyle.Render("chatmem Status"))
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Config File: %s\n", config.GlobalConfigPath())
	fmt.Fprintf(out, "Database:    %s\n", a.db.Path())
	if v, err := a.db.SchemaVersion(); err == nil {
		fmt.Fprintf(out, "Schema:      v%d\n", v)
	}
	if debug.IsEnabled() {
		fmt.Fprintf(out, "Debug Log:   %s\n", debug.LogPath())
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Model Configuration:")
	printModelConfig(out, cfg.Model)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Memory:")
	fmt.Fprintf(out, "  Token Limit:       %d\n", a.memory.TokenLimit())
	fmt.Fprintf(out, "  Summarize Timeout: %s\n", cfg.Memory.SummarizeTimeout)
	fmt.Fprintf(out, "  Token Estimator:   %s\n", cfg.Memory.TokenEstimator)
	fmt.Fprintln(out)

	infos, err := a.sessions.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	var messages int
	var staged int64
	summarized := 0
	for _, info := range infos {
		messages += info.MessageCount
		staged += info.Staged()
		if info.CoveredUpTo > 0 {
			summarized++
		}
	}
	fmt.Fprintln(out, "Sessions:")
	fmt.Fprintf(out, "  Stored:     %d (%d with a summary)\n", len(infos), summarized)
	fmt.Fprintf(out, "  Messages:   %d (%d staged)\n", messages, staged)

	return nil
}

func printModelConfig(out io.Writer, m *config.ModelConfig) {
	fmt.Fprintf(out, "  Provider: %s\n", m.ProviderType)
	fmt.Fprintf(out, "  Model:    %s\n", m.Model)
	fmt.Fprintf(out, "  Base URL: %s\n", m.BaseURL)
	fmt.Fprintf(out, "  API Key:  %s\n", apiKeyStatus(m))
}

func apiKeyStatus(m *config.ModelConfig) string {
	switch {
	case m.APIKey == "":
		return "Not configured"
	case strings.HasPrefix(m.APIKey, "$"):
		return "From " + m.APIKey
	default:
		return "Set in config"
	}
}
