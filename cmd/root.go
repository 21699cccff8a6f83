// Package cmd provides the CLI commands for chatmem.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/agent"
	"github.com/guilhermegouw/chatmem/internal/config"
	"github.com/guilhermegouw/chatmem/internal/db"
	"github.com/guilhermegouw/chatmem/internal/debug"
	"github.com/guilhermegouw/chatmem/internal/events"
	"github.com/guilhermegouw/chatmem/internal/memory"
	"github.com/guilhermegouw/chatmem/internal/message"
	"github.com/guilhermegouw/chatmem/internal/provider"
	"github.com/guilhermegouw/chatmem/internal/pubsub"
	"github.com/guilhermegouw/chatmem/internal/session"
	"github.com/guilhermegouw/chatmem/internal/summarizer"
	"github.com/guilhermegouw/chatmem/internal/summary"
	"github.com/guilhermegouw/chatmem/internal/tokens"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatmem",
		Short: "Chat with an assistant that remembers",
		Long: `chatmem keeps a durable, per-session conversation log and folds
older turns into a running summary once the staged history grows past
a token limit.

Running chatmem with no subcommand starts an interactive chat.`,
		SilenceUsage: true,
		RunE:         runChat,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging to the data directory")
	cmd.PersistentFlags().String("db", "", "Path to the conversation database")
	cmd.PersistentFlags().Bool("offline", false, "Use the offline echo assistant and static summarizer")
	addChatFlags(cmd)

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newSummaryCmd())
	cmd.AddCommand(newResummarizeCmd())
	cmd.AddCommand(newColdStartCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newProvidersCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// app bundles everything a command needs to talk to memory.
type app struct {
	cfg       *config.Config
	db        *db.DB
	memory    *memory.Manager
	sessions  *session.Service
	assistant agent.Agent
	broker    *pubsub.Broker[events.MemoryEvent]
	closeFns  []func()
}

// openApp loads configuration and wires storage, memory, and the assistant.
// withAssistant is false for commands that never generate replies.
func openApp(cmd *cobra.Command, withAssistant bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{cfg: cfg}

	debugMode, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("getting debug flag: %w", err)
	}
	if debugMode || cfg.Options.Debug {
		logPath := cfg.LogPath()
		if debugErr := debug.Enable(logPath); debugErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to enable debug logging: %v\n", debugErr)
		} else {
			a.closeFns = append(a.closeFns, debug.Disable)
			fmt.Fprintf(os.Stderr, "Debug: %s\n", logPath)
		}
	}

	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("getting db flag: %w", err)
	}
	if dbPath == "" {
		dbPath = cfg.DBPath()
	}
	a.db, err = db.Open(dbPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.closeFns = append(a.closeFns, func() { _ = a.db.Close() }) //nolint:errcheck // best effort on exit

	offline, err := cmd.Flags().GetBool("offline")
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("getting offline flag: %w", err)
	}

	var s summarizer.Summarizer = summarizer.Static{}
	var assistant agent.Agent = agent.Echo{}
	if !offline && withAssistant {
		model, buildErr := provider.NewBuilder(cfg.Model).BuildModel(cmd.Context())
		if buildErr != nil {
			a.Close()
			return nil, fmt.Errorf("building model: %w", buildErr)
		}
		s = summarizer.NewModel(model.Model, summarizer.WithMaxOutputTokens(cfg.Model.MaxOutputTokens))
		assistant = agent.New(agent.Config{
			Model:        model.Model,
			SystemPrompt: cfg.Model.SystemPrompt,
			MaxTokens:    cfg.Model.MaxOutputTokens,
		})
	}
	a.assistant = assistant

	a.memory, err = newManager(a.db, cfg.Memory, s, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = session.NewService(session.NewSQLiteStore(a.db.Conn()))

	return a, nil
}

func newManager(database *db.DB, mc *config.MemoryConfig, s summarizer.Summarizer, a *app) (*memory.Manager, error) {
	estimator, err := tokens.ByName(mc.TokenEstimator)
	if err != nil {
		return nil, err
	}
	timeout, err := mc.Timeout()
	if err != nil {
		return nil, err
	}

	broker := pubsub.NewBroker[events.MemoryEvent]("memory")
	a.broker = broker
	a.closeFns = append(a.closeFns, func() {
		debug.Event("cmd", "BrokerStats", fmt.Sprintf("broker=%s published=%d dropped=%d",
			broker.Name(), broker.Published(), broker.Dropped()))
		broker.Shutdown()
	})

	opts := memory.DefaultOptions()
	opts.TokenLimit = mc.TokenLimit
	opts.SummarizeTimeout = timeout
	opts.Estimator = estimator
	opts.Broker = a.broker

	mgr, err := memory.NewManager(
		message.NewSQLiteStore(database.Conn()),
		summary.NewSQLiteStore(database),
		s,
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating memory manager: %w", err)
	}
	return mgr, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

// Execute runs the root command. An interrupt cancels the command context so
// in-flight replies and compactions stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
