package summary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guilhermegouw/chatmem/internal/db"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new SQLite-backed summary store.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// Get returns the summary of a session.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*State, error) {
	var (
		st        State
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT session_id, summary_text, covered_up_to_seq, updated_at
FROM summaries
WHERE session_id = ?`, sessionID).Scan(&st.SessionID, &st.Text, &st.CoveredUpTo, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	st.UpdatedAt = time.UnixMilli(updatedAt)
	return &st, nil
}

// Save validates the new coverage against the stored row and the message
// log inside one transaction, then upserts.
func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var maxSeq int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(seq), 0) FROM messages WHERE session_id = ?", state.SessionID,
		).Scan(&maxSeq); err != nil {
			return fmt.Errorf("reading max seq: %w", err)
		}
		if state.CoveredUpTo > maxSeq {
			return fmt.Errorf("%w: covered %d > max seq %d", ErrRegression, state.CoveredUpTo, maxSeq)
		}

		var current int64
		err := tx.QueryRowContext(ctx,
			"SELECT covered_up_to_seq FROM summaries WHERE session_id = ?", state.SessionID,
		).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("reading current summary: %w", err)
		case state.CoveredUpTo < current:
			return fmt.Errorf("%w: covered %d < stored %d", ErrRegression, state.CoveredUpTo, current)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO summaries (session_id, summary_text, covered_up_to_seq, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (session_id) DO UPDATE SET
    summary_text = excluded.summary_text,
    covered_up_to_seq = excluded.covered_up_to_seq,
    updated_at = excluded.updated_at`,
			state.SessionID, state.Text, state.CoveredUpTo, state.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("saving summary: %w", err)
		}
		return nil
	})
}
