// Package message provides the durable, append-only conversation log.
package message

import "time"

// Role represents the role of a message sender.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the speaker label used when rendering transcripts.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Message is one immutable turn of a session.
type Message struct {
	SessionID string
	Seq       int64
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Line renders the message as a single "Label: content" transcript line.
func (m *Message) Line() string {
	return m.Role.Label() + ": " + m.Content
}

// HighestSeq returns the seq of the last message, or 0 for an empty slice.
// Callers pass messages in ascending seq order.
func HighestSeq(msgs []*Message) int64 {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].Seq
}
