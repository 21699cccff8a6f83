package agent

import (
	"context"
	"strings"
	"sync"

	"charm.land/fantasy"

	"github.com/guilhermegouw/chatmem/internal/debug"
	"github.com/guilhermegouw/chatmem/internal/message"
)

// defaultMaxTokens is used when neither the call nor the config sets a limit.
const defaultMaxTokens int64 = 2048

// DefaultAgent implements the Agent interface using Fantasy.
type DefaultAgent struct { //nolint:govet // fieldalignment: preserving logical field order
	model          fantasy.LanguageModel
	systemPrompt   string
	maxTokens      int64
	activeRequests map[string]context.CancelFunc
	mu             sync.RWMutex
}

// New creates a new agent with the given configuration.
func New(cfg Config) *DefaultAgent {
	return &DefaultAgent{
		model:          cfg.Model,
		systemPrompt:   cfg.SystemPrompt,
		maxTokens:      cfg.MaxTokens,
		activeRequests: make(map[string]context.CancelFunc),
	}
}

// Send streams a reply to prompt. The history is the session's summary and
// staged turns; if the last staged turn is prompt itself it is not repeated.
func (a *DefaultAgent) Send(ctx context.Context, prompt string, opts SendOptions, callbacks StreamCallbacks) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	sessionID := opts.SessionID
	if a.IsBusy(sessionID) {
		return "", ErrSessionBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	a.setActiveRequest(sessionID, cancel)
	defer func() {
		a.clearActiveRequest(sessionID)
		cancel()
	}()

	maxTokens := a.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []fantasy.Message
	messages = append(messages, fantasy.NewSystemMessage(systemBlocks(a.systemPrompt, opts.History.Summary)...))
	messages = append(messages, buildHistory(opts.History.Messages, prompt)...)

	streamOpts := fantasy.AgentStreamCall{
		Prompt:          prompt,
		Messages:        messages,
		MaxOutputTokens: &maxTokens,
	}

	var reply strings.Builder
	streamOpts.OnTextDelta = func(_, text string) error {
		reply.WriteString(text)
		if callbacks.OnTextDelta != nil {
			return callbacks.OnTextDelta(text)
		}
		return nil
	}

	debug.Event("agent", "Send", "session="+sessionID)
	if _, err := fantasy.NewAgent(a.model).Stream(ctx, streamOpts); err != nil {
		debug.Error("agent", err, "streaming reply for "+sessionID)
		return reply.String(), err
	}
	return strings.TrimSpace(reply.String()), nil
}

// buildHistory converts staged turns to Fantasy messages, dropping a
// trailing user turn that equals the current prompt.
func buildHistory(staged []*message.Message, prompt string) []fantasy.Message {
	if n := len(staged); n > 0 && staged[n-1].Role == message.RoleUser && staged[n-1].Content == prompt {
		staged = staged[:n-1]
	}
	if len(staged) == 0 {
		return nil
	}

	history := make([]fantasy.Message, 0, len(staged))
	for _, msg := range staged {
		switch msg.Role {
		case message.RoleUser:
			history = append(history, fantasy.NewUserMessage(msg.Content))
		case message.RoleAssistant:
			history = append(history, fantasy.Message{
				Role:    fantasy.MessageRoleAssistant,
				Content: []fantasy.MessagePart{fantasy.TextPart{Text: msg.Content}},
			})
		}
	}
	return history
}

// Cancel cancels any ongoing request for a session. The interrupted Send
// returns the partial reply with a context error.
func (a *DefaultAgent) Cancel(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cancel, ok := a.activeRequests[sessionID]; ok {
		cancel()
		delete(a.activeRequests, sessionID)
	}
}

// IsBusy returns true if the agent is processing a request for the session.
func (a *DefaultAgent) IsBusy(sessionID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.activeRequests[sessionID]
	return ok
}

func (a *DefaultAgent) setActiveRequest(sessionID string, cancel context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activeRequests[sessionID] = cancel
}

func (a *DefaultAgent) clearActiveRequest(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.activeRequests, sessionID)
}

var _ Agent = (*DefaultAgent)(nil)
