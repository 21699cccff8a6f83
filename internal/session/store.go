// Package session lists the conversations stored in the message log.
package session

import (
	"context"
	"time"
)

// Info summarizes one stored session.
type Info struct {
	ID           string
	MessageCount int
	LastSeq      int64
	CoveredUpTo  int64  // 0 when the session has no summary yet
	FirstMessage string // first user turn, empty if none
	UpdatedAt    time.Time
}

// Staged returns how many messages are not yet folded into the summary.
func (i *Info) Staged() int64 {
	return i.LastSeq - i.CoveredUpTo
}

// Store defines the read side of the session catalog.
type Store interface {
	// Get returns one session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Info, error)

	// List returns all sessions, most recently active first.
	List(ctx context.Context) ([]*Info, error)

	// Search returns the sessions whose id or any message matches every
	// word of keyword, most recently active first.
	Search(ctx context.Context, keyword string) ([]*Info, error)
}
