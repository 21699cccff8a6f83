// Package summarizer folds new conversation lines into a running summary.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// ErrEmptySummary is returned when a summarizer produces no text.
var ErrEmptySummary = errors.New("summarizer returned an empty summary")

// Summarizer merges newLines into priorSummary and returns the updated summary.
// Calls may be slow and may fail; callers only rely on success or failure,
// never on the exact text.
type Summarizer interface {
	Merge(ctx context.Context, priorSummary string, newLines []*message.Message) (string, error)
}

// Error reports a failed or timed-out merge.
type Error struct {
	Err     error
	Timeout bool
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("summarizer timed out: %v", e.Err)
	}
	return fmt.Sprintf("summarizer failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError converts err into an *Error, keeping an existing one as is.
// A nil err stays nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
}

// Func adapts a plain function to the Summarizer interface.
type Func func(ctx context.Context, priorSummary string, newLines []*message.Message) (string, error)

// Merge calls f.
func (f Func) Merge(ctx context.Context, priorSummary string, newLines []*message.Message) (string, error) {
	return f(ctx, priorSummary, newLines)
}

// WithTimeout bounds every Merge call of next by timeout. A merge that
// outlives the deadline is reported as a timeout even if next ignores ctx.
func WithTimeout(next Summarizer, timeout time.Duration) Summarizer {
	return &timeoutSummarizer{next: next, timeout: timeout}
}

type timeoutSummarizer struct {
	next    Summarizer
	timeout time.Duration
}

type mergeResult struct {
	text string
	err  error
}

func (t *timeoutSummarizer) Merge(ctx context.Context, priorSummary string, newLines []*message.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan mergeResult, 1)
	go func() {
		text, err := t.next.Merge(ctx, priorSummary, newLines)
		done <- mergeResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", AsError(r.err)
		}
		if r.text == "" {
			return "", &Error{Err: ErrEmptySummary}
		}
		return r.text, nil
	case <-ctx.Done():
		return "", &Error{
			Err:     ctx.Err(),
			Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
		}
	}
}
