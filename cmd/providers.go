package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/agent"
	"github.com/guilhermegouw/chatmem/internal/config"
	"github.com/guilhermegouw/chatmem/internal/provider"
)

// checkTimeout bounds the round trip of providers check.
const checkTimeout = 30 * time.Second

// newProvidersCmd creates the providers command group.
func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List and check model providers",
		Long: `List the provider types chatmem can talk to and check the configured one.

Examples:
  chatmem providers list     List supported provider types
  chatmem providers check    Send a short prompt to the configured model`,
	}

	cmd.AddCommand(newProvidersListCmd())
	cmd.AddCommand(newProvidersCheckCmd())

	return cmd
}

// newProvidersListCmd lists the supported provider types.
func newProvidersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported provider types",
		Args:  cobra.NoArgs,
		RunE:  runProvidersList,
	}
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Supported Providers:")
	fmt.Fprintln(out)
	for _, t := range config.SupportedProviderTypes() {
		marker := "  "
		if t == cfg.Model.ProviderType {
			marker = "* "
		}
		fmt.Fprintf(out, "%s%-14s %s\n", marker, t, providerDescription(t))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configured: %s (%s)\n", cfg.Model.Model, cfg.Model.ProviderType)
	fmt.Fprintln(out, "Run 'chatmem config set model.provider_type <type>' to switch.")
	return nil
}

func providerDescription(t catwalk.Type) string {
	switch t {
	case catwalk.TypeOpenAICompat:
		return "OpenAI-compatible endpoint (Ollama, LM Studio, vLLM)"
	case catwalk.TypeOpenAI:
		return "OpenAI API"
	case catwalk.TypeAnthropic:
		return "Anthropic API"
	default:
		return ""
	}
}

// newProvidersCheckCmd verifies the configured model answers.
func newProvidersCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Send a short prompt to the configured model",
		Args:  cobra.NoArgs,
		RunE:  runProvidersCheck,
	}
}

func runProvidersCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	model, err := provider.NewBuilder(cfg.Model).BuildModel(ctx)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	start := time.Now()
	ag := agent.New(agent.Config{Model: model.Model, MaxTokens: cfg.Model.MaxOutputTokens})
	reply, err := ag.Send(ctx, "Reply with the single word: ok", agent.SendOptions{
		SessionID: "providers-check",
		MaxTokens: 16,
	}, agent.StreamCallbacks{})
	if err != nil {
		return fmt.Errorf("model %s did not answer: %w", cfg.Model.Model, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s via %s answered in %s: %s\n",
		cfg.Model.Model, cfg.Model.ProviderType, time.Since(start).Round(time.Millisecond), strings.TrimSpace(reply))
	return nil
}
