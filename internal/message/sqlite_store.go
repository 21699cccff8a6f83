package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-backed message store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		now: time.Now,
	}
}

const appendMessage = `
INSERT INTO messages (session_id, seq, role, content, created_at)
SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?
FROM messages
WHERE session_id = ?
RETURNING seq`

// Append assigns the next seq and inserts the row in a single statement, so
// the seq computation and the write commit together or not at all.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("appending message: unknown role %q", role)
	}

	createdAt := s.now()
	var seq int64
	err := s.db.QueryRowContext(ctx, appendMessage,
		sessionID, string(role), content, createdAt.UnixMilli(), sessionID,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	return &Message{
		SessionID: sessionID,
		Seq:       seq,
		Role:      role,
		Content:   content,
		CreatedAt: time.UnixMilli(createdAt.UnixMilli()),
	}, nil
}

// Load returns all messages for a session.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]*Message, error) {
	return s.LoadAfter(ctx, sessionID, 0)
}

// LoadAfter returns the messages with seq > afterSeq.
func (s *SQLiteStore) LoadAfter(ctx context.Context, sessionID string, afterSeq int64) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, seq, role, content, created_at
FROM messages
WHERE session_id = ? AND seq > ?
ORDER BY seq ASC`, sessionID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("loading session messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			m         Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&m.SessionID, &m.Seq, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.UnixMilli(createdAt)
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

// MaxSeq returns the highest seq stored for a session.
func (s *SQLiteStore) MaxSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM messages WHERE session_id = ?", sessionID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("getting max seq: %w", err)
	}
	return seq, nil
}

// ListSessions returns the ids of sessions with at least one message.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT session_id FROM messages ORDER BY session_id")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return ids, nil
}
