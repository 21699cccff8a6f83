package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/guilhermegouw/chatmem/internal/message"
	"github.com/guilhermegouw/chatmem/internal/summary"
	"github.com/guilhermegouw/chatmem/internal/tokens"
)

// Buffer is the in-memory view of one session: the running summary and the
// staged messages that are not folded into it yet. Messages with
// seq <= CoveredUpTo belong to the summary, the rest are staged.
//
// Buffer is not safe for concurrent use; the Manager guards it.
type Buffer struct {
	sessionID   string
	summary     string
	coveredUpTo int64
	staged      []*message.Message
	tokens      int
	estimator   tokens.Estimator
}

// Snapshot freezes the staged run a compaction folds.
type Snapshot struct {
	PriorSummary string
	Messages     []*message.Message
	CoveredUpTo  int64
}

// HighSeq returns the seq the summary covers once the snapshot is folded.
func (s Snapshot) HighSeq() int64 {
	if len(s.Messages) == 0 {
		return s.CoveredUpTo
	}
	return message.HighestSeq(s.Messages)
}

// NewBuffer creates an empty buffer for sessionID.
func NewBuffer(sessionID string, estimator tokens.Estimator) *Buffer {
	return &Buffer{
		sessionID: sessionID,
		estimator: estimator,
	}
}

// Summary returns the current summary text.
func (b *Buffer) Summary() string { return b.summary }

// CoveredUpTo returns the highest seq folded into the summary.
func (b *Buffer) CoveredUpTo() int64 { return b.coveredUpTo }

// Tokens returns the cached estimate of all staged messages.
func (b *Buffer) Tokens() int { return b.tokens }

// Len returns the number of staged messages.
func (b *Buffer) Len() int { return len(b.staged) }

// Staged returns a copy of the staged messages, oldest first.
func (b *Buffer) Staged() []*message.Message {
	out := make([]*message.Message, len(b.staged))
	copy(out, b.staged)
	return out
}

// Stage appends msg to the tail. It refuses messages from another session
// and messages that would break seq order or overlap the summary.
func (b *Buffer) Stage(msg *message.Message) error {
	if msg.SessionID != b.sessionID {
		return fmt.Errorf("staging message of session %q into %q", msg.SessionID, b.sessionID)
	}
	last := b.coveredUpTo
	if n := len(b.staged); n > 0 {
		last = b.staged[n-1].Seq
	}
	if msg.Seq <= last {
		return fmt.Errorf("staging seq %d after seq %d", msg.Seq, last)
	}

	b.staged = append(b.staged, msg)
	b.tokens += b.estimator.Estimate(msg)
	return nil
}

// Snapshot returns the prior summary and the whole staged run.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{
		PriorSummary: b.summary,
		Messages:     b.Staged(),
		CoveredUpTo:  b.coveredUpTo,
	}
}

// Commit installs newSummary as covering every seq up to newCoveredUpTo and
// drops those messages from the stage. Messages staged after the snapshot
// that produced newSummary stay staged.
func (b *Buffer) Commit(newSummary string, newCoveredUpTo int64) error {
	if newCoveredUpTo < b.coveredUpTo {
		return fmt.Errorf("committing coverage %d below %d", newCoveredUpTo, b.coveredUpTo)
	}

	folded := 0
	for folded < len(b.staged) && b.staged[folded].Seq <= newCoveredUpTo {
		folded++
	}
	if newCoveredUpTo > b.coveredUpTo && (folded == 0 || b.staged[folded-1].Seq != newCoveredUpTo) {
		return fmt.Errorf("committing coverage %d that does not end on a staged message", newCoveredUpTo)
	}

	rest := make([]*message.Message, len(b.staged)-folded)
	copy(rest, b.staged[folded:])

	b.staged = rest
	b.summary = newSummary
	b.coveredUpTo = newCoveredUpTo
	b.tokens = tokens.Total(b.estimator, rest)
	return nil
}

// Rebuild reloads the buffer from durable state: the stored summary and every
// message after its coverage. On error the buffer is left unchanged.
func (b *Buffer) Rebuild(ctx context.Context, msgs message.Store, sums summary.Store) error {
	var (
		text    string
		covered int64
	)
	state, err := sums.Get(ctx, b.sessionID)
	switch {
	case errors.Is(err, summary.ErrNotFound):
	case err != nil:
		return err
	default:
		text, covered = state.Text, state.CoveredUpTo
	}

	staged, err := msgs.LoadAfter(ctx, b.sessionID, covered)
	if err != nil {
		return err
	}

	b.summary = text
	b.coveredUpTo = covered
	b.staged = staged
	b.tokens = tokens.Total(b.estimator, staged)
	return nil
}
