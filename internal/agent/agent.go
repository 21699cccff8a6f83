// Package agent produces assistant replies from a session's memory view.
package agent

import (
	"context"

	"charm.land/fantasy"

	"github.com/guilhermegouw/chatmem/internal/memory"
)

// StreamCallbacks contains callbacks for streaming responses.
type StreamCallbacks struct {
	OnTextDelta func(text string) error
}

// SendOptions contains options for sending a message.
type SendOptions struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	History   memory.View
	MaxTokens int64
}

// Agent is the interface for an assistant.
type Agent interface {
	// Send answers prompt given the session history and returns the reply.
	Send(ctx context.Context, prompt string, opts SendOptions, callbacks StreamCallbacks) (string, error)

	// Cancel cancels any ongoing request for a session.
	Cancel(sessionID string)

	// IsBusy returns true if the agent is processing a request for the session.
	IsBusy(sessionID string) bool
}

// Config contains agent configuration.
type Config struct { //nolint:govet // fieldalignment: preserving logical field order
	Model        fantasy.LanguageModel
	SystemPrompt string
	MaxTokens    int64
}

// ErrSessionBusy is returned when a session is already processing a request.
var ErrSessionBusy = NewError("session is busy")

// ErrEmptyPrompt is returned when an empty prompt is provided.
var ErrEmptyPrompt = NewError("prompt cannot be empty")

// Error represents an agent-specific error.
type Error struct {
	message string
}

// NewError creates a new agent error with the given message.
func NewError(message string) *Error {
	return &Error{message: message}
}

func (e *Error) Error() string {
	return e.message
}
