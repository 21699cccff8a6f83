package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/chatmem/internal/agent"
	"github.com/guilhermegouw/chatmem/internal/bridge"
	"github.com/guilhermegouw/chatmem/internal/debug"
	"github.com/guilhermegouw/chatmem/internal/memory"
	"github.com/guilhermegouw/chatmem/internal/message"
	"github.com/guilhermegouw/chatmem/internal/session"
)

// Chat commands typed at the prompt.
const (
	cmdMemory  = "/memory"
	cmdHistory = "/history"
	cmdSummary = "/summary"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Start an interactive chat in a session.

Inside the chat:
  /memory    fold the staged turns into the summary now
  /history   print the full transcript
  /summary   print the current summary
  (empty)    exit`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	addChatFlags(cmd)
	return cmd
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("session", "s", "", "Session label to chat in")
	cmd.Flags().Bool("new", false, "Start a fresh session with a generated label")
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	sessionID, err := chooseSession(cmd, a, in, out)
	if err != nil {
		return err
	}
	debug.Event("cmd", "ChatStarted", "session="+sessionID)

	// An interrupt stops the reply being streamed for this session.
	stopCancel := context.AfterFunc(ctx, func() { a.assistant.Cancel(sessionID) })
	defer stopCancel()

	fwd := bridge.NewForwarder(a.broker, bridge.SinkFunc(printNotice), bridge.WithSessionFilter(sessionID))
	fwd.Start(ctx)
	defer fwd.Stop()

	// A session stored before summaries existed gets its first one now.
	if err := a.memory.ColdStart(ctx, sessionID); err != nil {
		if errors.Is(err, memory.ErrStorage) {
			return err
		}
		fmt.Fprintln(os.Stderr, warnStyle.Render("Warning: cold start: "+err.Error()))
	}

	view, err := a.memory.HistoryView(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, headingStyle.Render("Session: "+sessionID))
	if view.Summary != "" {
		fmt.Fprintln(out, mutedStyle.Render("Summary so far:"))
		fmt.Fprintln(out, view.Summary)
	}
	fmt.Fprintln(out, mutedStyle.Render("Empty line to exit. /memory, /history, /summary for memory commands."))

	for {
		fmt.Fprint(out, userStyle.Render("> "))
		line, readErr := in.ReadString('\n')
		input := strings.TrimSpace(line)
		if input == "" {
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				return fmt.Errorf("reading input: %w", readErr)
			}
			return nil
		}

		if err := handleTurn(ctx, a, out, sessionID, input); err != nil {
			if errors.Is(err, memory.ErrStorage) || errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

// chooseSession resolves the session from flags, or asks for a label after
// listing the existing ones.
func chooseSession(cmd *cobra.Command, a *app, in *bufio.Reader, out io.Writer) (string, error) {
	fresh, err := cmd.Flags().GetBool("new")
	if err != nil {
		return "", fmt.Errorf("getting new flag: %w", err)
	}
	if fresh {
		return session.NewID(), nil
	}

	label, err := cmd.Flags().GetString("session")
	if err != nil {
		return "", fmt.Errorf("getting session flag: %w", err)
	}
	if label != "" {
		return session.Resolve(label), nil
	}

	infos, err := a.sessions.List(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	if len(infos) > 0 {
		ids := make([]string, len(infos))
		for i, info := range infos {
			ids[i] = info.ID
		}
		fmt.Fprintln(out, mutedStyle.Render("Existing sessions: "+strings.Join(ids, ", ")))
	}
	fmt.Fprintf(out, "Session label [%s]: ", session.DefaultID)

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading session label: %w", err)
	}
	return session.Resolve(line), nil
}

// handleTurn runs one line of input: a memory command or a user turn
// followed by the assistant's reply.
func handleTurn(ctx context.Context, a *app, out io.Writer, sessionID, input string) error {
	switch input {
	case cmdMemory:
		if err := a.memory.ForceResummarize(ctx, sessionID); err != nil {
			return err
		}
		view, err := a.memory.HistoryView(ctx, sessionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Summary covers up to turn %d.", view.CoveredUpTo)))
		return nil
	case cmdHistory:
		msgs, err := a.memory.DumpHistory(ctx, sessionID)
		if err != nil {
			return err
		}
		printTranscript(out, msgs)
		return nil
	case cmdSummary:
		view, err := a.memory.HistoryView(ctx, sessionID)
		if err != nil {
			return err
		}
		if view.Summary == "" {
			fmt.Fprintln(out, mutedStyle.Render("No summary yet."))
			return nil
		}
		fmt.Fprintln(out, view.Summary)
		return nil
	}

	if _, err := a.memory.AppendTurn(ctx, sessionID, message.RoleUser, input); err != nil {
		// The turn is stored even when the follow-up compaction fails.
		if !errors.Is(err, memory.ErrSummarization) {
			return err
		}
		fmt.Fprintln(os.Stderr, warnStyle.Render("Warning: "+err.Error()))
	}

	view, err := a.memory.HistoryView(ctx, sessionID)
	if err != nil {
		return err
	}

	fmt.Fprint(out, roleLabel(message.RoleAssistant)+" ")
	reply, err := a.assistant.Send(ctx, input, agent.SendOptions{
		SessionID: sessionID,
		History:   view,
	}, agent.StreamCallbacks{
		OnTextDelta: func(text string) error {
			_, werr := io.WriteString(out, text)
			return werr
		},
	})
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("getting reply: %w", err)
	}

	if _, err := a.memory.AppendTurn(ctx, sessionID, message.RoleAssistant, reply); err != nil {
		if !errors.Is(err, memory.ErrSummarization) {
			return err
		}
		fmt.Fprintln(os.Stderr, warnStyle.Render("Warning: "+err.Error()))
	}
	return nil
}

func printNotice(n bridge.Notice) {
	style := mutedStyle
	if n.Failed {
		style = warnStyle
	}
	fmt.Fprintln(os.Stderr, style.Render(n.Text))
}

func printTranscript(out io.Writer, msgs []*message.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No messages yet."))
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render(fmt.Sprintf("%4d", m.Seq)), roleLabel(m.Role), m.Content)
	}
}
