package memory

import (
	"context"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// Capabilities is the fixed set of memory operations exposed to command
// layers and dispatchers.
type Capabilities interface {
	AppendTurn(ctx context.Context, sessionID string, role message.Role, content string) (*message.Message, error)
	ForceResummarize(ctx context.Context, sessionID string) error
	DumpHistory(ctx context.Context, sessionID string) ([]*message.Message, error)
}

var _ Capabilities = (*Manager)(nil)
