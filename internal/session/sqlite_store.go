package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a session has no messages.
var ErrNotFound = errors.New("session not found")

// SQLiteStore implements Store over the messages and summaries tables.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed session catalog.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectInfo = `
SELECT
    m.session_id,
    COUNT(*),
    MAX(m.seq),
    COALESCE(s.covered_up_to_seq, 0),
    COALESCE((
        SELECT f.content FROM messages f
        WHERE f.session_id = m.session_id AND f.role = 'user'
        ORDER BY f.seq LIMIT 1
    ), ''),
    MAX(m.created_at),
    COALESCE(s.updated_at, 0)
FROM messages m
LEFT JOIN summaries s ON s.session_id = m.session_id
`

const groupInfo = `
GROUP BY m.session_id
ORDER BY MAX(m.created_at) DESC, m.session_id`

// Get returns a single session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Info, error) {
	infos, err := s.query(ctx, selectInfo+"WHERE m.session_id = ?"+groupInfo, id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}
	return infos[0], nil
}

// List returns all sessions ordered by last activity.
func (s *SQLiteStore) List(ctx context.Context) ([]*Info, error) {
	infos, err := s.query(ctx, selectInfo+groupInfo)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return infos, nil
}

// Search returns sessions whose id or messages contain keyword.
// An empty keyword lists everything.
func (s *SQLiteStore) Search(ctx context.Context, keyword string) ([]*Info, error) {
	term := prepareSearchTerm(keyword)
	if term == "" {
		return s.List(ctx)
	}

	pattern := "%" + term + "%"
	infos, err := s.query(ctx, selectInfo+`
WHERE m.session_id LIKE ? OR m.session_id IN (
    SELECT session_id FROM messages WHERE content LIKE ?
)`+groupInfo, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching sessions: %w", err)
	}
	return infos, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]*Info, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // Read-only query.

	var infos []*Info
	for rows.Next() {
		var (
			info                     Info
			lastMessage, lastSummary int64
		)
		if err := rows.Scan(&info.ID, &info.MessageCount, &info.LastSeq, &info.CoveredUpTo,
			&info.FirstMessage, &lastMessage, &lastSummary); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.UnixMilli(max(lastMessage, lastSummary))
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// prepareSearchTerm converts a search keyword for multi-word matching.
// "bug auth" becomes "bug%auth" to match text containing both words in order.
func prepareSearchTerm(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return ""
	}
	return strings.Join(strings.Fields(keyword), "%")
}
