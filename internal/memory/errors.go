package memory

import (
	"errors"
	"fmt"

	"github.com/guilhermegouw/chatmem/internal/summarizer"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrStorage       = errors.New("memory storage failure")
	ErrSummarization = errors.New("memory summarization failure")
	ErrValidation    = errors.New("invalid memory request")
)

// StorageError reports a failed durable read or write. The operation it
// interrupted made no partial change and can be retried as a whole.
type StorageError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s for session %q: %v", e.Op, e.SessionID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// SummarizationError reports a failed or timed-out compaction. The session's
// buffer and summary are exactly as they were before the attempt.
type SummarizationError struct {
	SessionID string
	Err       *summarizer.Error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("compacting session %q: %v", e.SessionID, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Is matches ErrSummarization.
func (e *SummarizationError) Is(target error) bool { return target == ErrSummarization }

// Timeout reports whether the summarizer ran out of time.
func (e *SummarizationError) Timeout() bool { return e.Err != nil && e.Err.Timeout }

// ValidationError reports malformed input, rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
