// Package summary persists the running summary of each session.
package summary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session has no summary yet.
var ErrNotFound = errors.New("summary not found")

// ErrRegression is returned when a save would move covered_up_to_seq
// backwards or past the last stored message.
var ErrRegression = errors.New("summary coverage out of range")

// State is the folded-in part of a session's history.
type State struct {
	SessionID   string
	Text        string
	CoveredUpTo int64
	UpdatedAt   time.Time
}

// Store defines the interface for summary persistence.
type Store interface {
	// Get returns the summary of a session, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*State, error)

	// Save atomically creates or replaces the summary of a session.
	// It fails with ErrRegression when CoveredUpTo would decrease or exceed
	// the highest stored message seq, leaving the stored row untouched.
	Save(ctx context.Context, state *State) error
}
