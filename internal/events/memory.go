// Package events defines the payloads published by the memory manager.
package events

import "time"

// MemoryEventType represents memory-specific event types.
type MemoryEventType string

// Memory event type constants.
const (
	MemoryEventTurnAppended        MemoryEventType = "turn_appended"
	MemoryEventCompactionStarted   MemoryEventType = "compaction_started"
	MemoryEventCompactionCompleted MemoryEventType = "compaction_completed"
	MemoryEventCompactionFailed    MemoryEventType = "compaction_failed"
)

// Compaction trigger names.
const (
	TriggerThreshold = "threshold"
	TriggerManual    = "manual"
	TriggerColdStart = "cold_start"
)

// MemoryEvent describes something that happened to a session's memory.
type MemoryEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	Type      MemoryEventType
	Timestamp time.Time

	// Turn fields, for TurnAppended.
	Seq  int64
	Role string

	// Compaction fields.
	RunID       string // correlates started/completed/failed of one run
	Trigger     string
	Folded      int   // messages folded into the summary
	CoveredUpTo int64 // summary coverage after the run
	Duration    time.Duration
	Err         error
}

// NewTurnAppendedEvent creates a turn appended event.
func NewTurnAppendedEvent(sessionID string, seq int64, role string) MemoryEvent {
	return MemoryEvent{
		SessionID: sessionID,
		Type:      MemoryEventTurnAppended,
		Seq:       seq,
		Role:      role,
		Timestamp: time.Now(),
	}
}

// NewCompactionStartedEvent creates a compaction started event.
func NewCompactionStartedEvent(sessionID, runID, trigger string, folded int) MemoryEvent {
	return MemoryEvent{
		SessionID: sessionID,
		Type:      MemoryEventCompactionStarted,
		RunID:     runID,
		Trigger:   trigger,
		Folded:    folded,
		Timestamp: time.Now(),
	}
}

// NewCompactionCompletedEvent creates a compaction completed event.
func NewCompactionCompletedEvent(sessionID, runID, trigger string, folded int, coveredUpTo int64, d time.Duration) MemoryEvent {
	return MemoryEvent{
		SessionID:   sessionID,
		Type:        MemoryEventCompactionCompleted,
		RunID:       runID,
		Trigger:     trigger,
		Folded:      folded,
		CoveredUpTo: coveredUpTo,
		Duration:    d,
		Timestamp:   time.Now(),
	}
}

// NewCompactionFailedEvent creates a compaction failed event.
func NewCompactionFailedEvent(sessionID, runID, trigger string, err error, d time.Duration) MemoryEvent {
	return MemoryEvent{
		SessionID: sessionID,
		Type:      MemoryEventCompactionFailed,
		RunID:     runID,
		Trigger:   trigger,
		Err:       err,
		Duration:  d,
		Timestamp: time.Now(),
	}
}
