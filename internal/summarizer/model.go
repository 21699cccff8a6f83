package summarizer

import (
	"context"
	"strings"

	"charm.land/fantasy"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// DefaultMaxOutputTokens caps the length of a generated summary.
const DefaultMaxOutputTokens int64 = 1024

// Model summarizes with a fantasy language model.
type Model struct {
	model     fantasy.LanguageModel
	maxTokens int64
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithMaxOutputTokens overrides DefaultMaxOutputTokens.
func WithMaxOutputTokens(n int64) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.maxTokens = n
		}
	}
}

// NewModel creates a summarizer backed by lm.
func NewModel(lm fantasy.LanguageModel, opts ...ModelOption) *Model {
	m := &Model{
		model:     lm,
		maxTokens: DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge implements Summarizer.
func (m *Model) Merge(ctx context.Context, priorSummary string, newLines []*message.Message) (string, error) {
	agent := fantasy.NewAgent(m.model)

	var out strings.Builder
	maxTokens := m.maxTokens
	call := fantasy.AgentStreamCall{
		Prompt:          BuildPrompt(priorSummary, newLines),
		Messages:        []fantasy.Message{fantasy.NewSystemMessage(SystemPrompt)},
		MaxOutputTokens: &maxTokens,
	}
	call.OnTextDelta = func(_, text string) error {
		out.WriteString(text)
		return nil
	}

	if _, err := agent.Stream(ctx, call); err != nil {
		return "", AsError(err)
	}

	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return "", &Error{Err: ErrEmptySummary}
	}
	return summary, nil
}

var _ Summarizer = (*Model)(nil)
