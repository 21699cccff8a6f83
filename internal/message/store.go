package message

import (
	"context"
)

// Store defines the interface for message persistence.
type Store interface {
	// Append assigns the next seq for the session and durably stores the
	// message before returning it. A failed append writes nothing.
	Append(ctx context.Context, sessionID string, role Role, content string) (*Message, error)

	// Load returns all messages for a session in increasing seq order.
	Load(ctx context.Context, sessionID string) ([]*Message, error)

	// LoadAfter returns the messages with seq > afterSeq in increasing seq order.
	LoadAfter(ctx context.Context, sessionID string, afterSeq int64) ([]*Message, error)

	// MaxSeq returns the highest seq stored for a session, or 0 if none.
	MaxSeq(ctx context.Context, sessionID string) (int64, error)

	// ListSessions returns the ids of sessions with at least one message.
	ListSessions(ctx context.Context) ([]string, error)
}
