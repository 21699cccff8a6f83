// Package memory keeps each conversation session within a token budget by
// folding old turns into a running summary while the full transcript stays
// on disk.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guilhermegouw/chatmem/internal/debug"
	"github.com/guilhermegouw/chatmem/internal/events"
	"github.com/guilhermegouw/chatmem/internal/message"
	"github.com/guilhermegouw/chatmem/internal/pubsub"
	"github.com/guilhermegouw/chatmem/internal/summarizer"
	"github.com/guilhermegouw/chatmem/internal/summary"
	"github.com/guilhermegouw/chatmem/internal/tokens"
)

// Defaults used by DefaultOptions.
const (
	DefaultTokenLimit       = 1000
	DefaultSummarizeTimeout = 60 * time.Second
	defaultColdStartWorkers = 4
)

// State is the lifecycle state of a session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateCompacting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompacting:
		return "compacting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Manager.
type Options struct {
	// TokenLimit is the staged token estimate above which a turn compacts.
	TokenLimit int
	// SummarizeTimeout bounds every summarizer call.
	SummarizeTimeout time.Duration
	// Estimator prices staged messages. Nil selects the grapheme estimator.
	Estimator tokens.Estimator
	// Broker receives memory events when set.
	Broker pubsub.Publisher[events.MemoryEvent]
	// ColdStartWorkers bounds ColdStartAll parallelism.
	ColdStartWorkers int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TokenLimit:       DefaultTokenLimit,
		SummarizeTimeout: DefaultSummarizeTimeout,
		Estimator:        tokens.GraphemeEstimator{},
		ColdStartWorkers: defaultColdStartWorkers,
	}
}

func (o *Options) validate() error {
	if o.TokenLimit <= 0 {
		return &ValidationError{Field: "token_limit", Reason: fmt.Sprintf("must be positive, got %d", o.TokenLimit)}
	}
	if o.SummarizeTimeout <= 0 {
		return &ValidationError{Field: "summarize_timeout", Reason: fmt.Sprintf("must be positive, got %s", o.SummarizeTimeout)}
	}
	if o.Estimator == nil {
		o.Estimator = tokens.GraphemeEstimator{}
	}
	if o.ColdStartWorkers <= 0 {
		o.ColdStartWorkers = defaultColdStartWorkers
	}
	return nil
}

// View is what a prompt assembler needs to rebuild context for a session.
type View struct {
	Summary     string
	CoveredUpTo int64
	Messages    []*message.Message
}

// entry is the per-session state. mu guards buf, loaded and compacting and
// serializes the session's appends. compact is held for the whole of a
// compaction, so at most one runs per session.
type entry struct {
	mu         sync.Mutex
	compact    sync.Mutex
	buf        *Buffer
	loaded     bool
	compacting bool
}

// Manager owns the memory of every session.
type Manager struct {
	messages   message.Store
	summaries  summary.Store
	summarizer summarizer.Summarizer
	opts       Options

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a manager over the given stores. Every summarizer call
// is bounded by opts.SummarizeTimeout.
func NewManager(messages message.Store, summaries summary.Store, s summarizer.Summarizer, opts Options) (*Manager, error) {
	if messages == nil || summaries == nil {
		return nil, &ValidationError{Field: "store", Reason: "message and summary stores are required"}
	}
	if s == nil {
		return nil, &ValidationError{Field: "summarizer", Reason: "is required"}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Manager{
		messages:   messages,
		summaries:  summaries,
		summarizer: summarizer.WithTimeout(s, opts.SummarizeTimeout),
		opts:       opts,
		sessions:   make(map[string]*entry),
	}, nil
}

// TokenLimit returns the configured compaction threshold.
func (m *Manager) TokenLimit() int {
	return m.opts.TokenLimit
}

func (m *Manager) entry(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		e = &entry{buf: NewBuffer(sessionID, m.opts.Estimator)}
		m.sessions[sessionID] = e
	}
	return e
}

// ensureLoaded rebuilds the buffer from durable state on first use.
// Caller must hold e.mu.
func (m *Manager) ensureLoaded(ctx context.Context, sessionID string, e *entry) error {
	if e.loaded {
		return nil
	}
	if err := e.buf.Rebuild(ctx, m.messages, m.summaries); err != nil {
		debug.Error("memory", err, "rebuilding session "+sessionID)
		return &StorageError{Op: "loading session", SessionID: sessionID, Err: err}
	}
	e.loaded = true
	debug.Event("memory", "Rebuilt", fmt.Sprintf("session=%s covered=%d staged=%d tokens=%d",
		sessionID, e.buf.CoveredUpTo(), e.buf.Len(), e.buf.Tokens()))
	return nil
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return &ValidationError{Field: "session_id", Reason: "must not be empty"}
	}
	return nil
}

// AppendTurn durably logs a turn and stages it. When the staged estimate then
// exceeds the token limit the session is compacted before returning.
//
// The returned message is non-nil whenever the append itself succeeded, even
// if the compaction it triggered failed with a SummarizationError.
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, role message.Role, content string) (*message.Message, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	e := m.entry(sessionID)

	e.mu.Lock()
	if err := m.ensureLoaded(ctx, sessionID, e); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	msg, err := m.messages.Append(ctx, sessionID, role, content)
	if err != nil {
		e.mu.Unlock()
		debug.Error("memory", err, "appending to session "+sessionID)
		return nil, &StorageError{Op: "appending message", SessionID: sessionID, Err: err}
	}
	if err := e.buf.Stage(msg); err != nil {
		// The store and the buffer disagree; reload from the store next time.
		e.loaded = false
		e.mu.Unlock()
		return msg, &StorageError{Op: "staging message", SessionID: sessionID, Err: err}
	}
	over := e.buf.Tokens() > m.opts.TokenLimit
	e.mu.Unlock()

	m.publish(pubsub.EventCreated, events.NewTurnAppendedEvent(sessionID, msg.Seq, string(msg.Role)))

	if over {
		if err := m.compact(ctx, sessionID, e, events.TriggerThreshold); err != nil {
			return msg, err
		}
	}
	return msg, nil
}

// ColdStart establishes the initial summary of a session that has persisted
// messages but no summary yet. It is a no-op when a summary exists or the
// session has no messages.
func (m *Manager) ColdStart(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	_, err := m.summaries.Get(ctx, sessionID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, summary.ErrNotFound):
		return &StorageError{Op: "reading summary", SessionID: sessionID, Err: err}
	}

	maxSeq, err := m.messages.MaxSeq(ctx, sessionID)
	if err != nil {
		return &StorageError{Op: "reading max seq", SessionID: sessionID, Err: err}
	}
	if maxSeq == 0 {
		return nil
	}

	return m.compact(ctx, sessionID, m.entry(sessionID), events.TriggerColdStart)
}

// ColdStartAll cold-starts every stored session, a few at a time. It keeps
// going past failures and returns them joined.
func (m *Manager) ColdStartAll(ctx context.Context) error {
	ids, err := m.messages.ListSessions(ctx)
	if err != nil {
		return &StorageError{Op: "listing sessions", Err: err}
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.ColdStartWorkers)
	for _, id := range ids {
		g.Go(func() error {
			if err := m.ColdStart(gctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Workers never return errors; they collect them.
	return errors.Join(errs...)
}

// ForceResummarize folds whatever is staged into the summary right away,
// waiting for a running compaction of the session first. Nothing staged is
// not an error.
func (m *Manager) ForceResummarize(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return m.compact(ctx, sessionID, m.entry(sessionID), events.TriggerManual)
}

// HistoryView returns the summary and the staged messages of a session.
// It never compacts.
func (m *Manager) HistoryView(ctx context.Context, sessionID string) (View, error) {
	if err := validateSessionID(sessionID); err != nil {
		return View{}, err
	}

	e := m.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := m.ensureLoaded(ctx, sessionID, e); err != nil {
		return View{}, err
	}
	return View{
		Summary:     e.buf.Summary(),
		CoveredUpTo: e.buf.CoveredUpTo(),
		Messages:    e.buf.Staged(),
	}, nil
}

// DumpHistory returns the full transcript of a session.
func (m *Manager) DumpHistory(ctx context.Context, sessionID string) ([]*message.Message, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	msgs, err := m.messages.Load(ctx, sessionID)
	if err != nil {
		return nil, &StorageError{Op: "loading history", SessionID: sessionID, Err: err}
	}
	return msgs, nil
}

// Sessions returns the ids of every stored session.
func (m *Manager) Sessions(ctx context.Context) ([]string, error) {
	ids, err := m.messages.ListSessions(ctx)
	if err != nil {
		return nil, &StorageError{Op: "listing sessions", Err: err}
	}
	return ids, nil
}

// State reports whether a session is currently compacting.
func (m *Manager) State(sessionID string) State {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return StateIdle
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.compacting {
		return StateCompacting
	}
	return StateIdle
}

// compact runs one compaction of the session's staged run. A threshold
// trigger gives up if the session is already compacting; the other triggers
// wait their turn.
func (m *Manager) compact(ctx context.Context, sessionID string, e *entry, trigger string) error {
	if trigger == events.TriggerThreshold {
		if !e.compact.TryLock() {
			debug.Event("memory", "CompactionSkipped", fmt.Sprintf("session=%s already compacting", sessionID))
			return nil
		}
	} else {
		e.compact.Lock()
	}
	defer e.compact.Unlock()

	e.mu.Lock()
	if err := m.ensureLoaded(ctx, sessionID, e); err != nil {
		e.mu.Unlock()
		return err
	}
	// A compaction that finished while this one waited may have already
	// brought the session back under the limit.
	// A cold start that lost the race to another compaction has nothing to do.
	if e.buf.Len() == 0 ||
		(trigger == events.TriggerThreshold && e.buf.Tokens() <= m.opts.TokenLimit) ||
		(trigger == events.TriggerColdStart && e.buf.CoveredUpTo() > 0) {
		e.mu.Unlock()
		return nil
	}
	snap := e.buf.Snapshot()
	e.compacting = true
	e.mu.Unlock()

	runID := uuid.NewString()
	folded := len(snap.Messages)
	start := time.Now()

	debug.Event("memory", "CompactionStarted", fmt.Sprintf("session=%s run=%s trigger=%s folded=%d seq=%d-%d",
		sessionID, runID, trigger, folded, snap.Messages[0].Seq, snap.HighSeq()))
	m.publish(pubsub.EventStarted, events.NewCompactionStartedEvent(sessionID, runID, trigger, folded))

	text, mergeErr := m.summarizer.Merge(ctx, snap.PriorSummary, snap.Messages)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.compacting = false

	if mergeErr != nil {
		err := &SummarizationError{SessionID: sessionID, Err: summarizer.AsError(mergeErr)}
		m.fail(sessionID, runID, trigger, err, start)
		return err
	}

	state := &summary.State{
		SessionID:   sessionID,
		Text:        text,
		CoveredUpTo: snap.HighSeq(),
	}
	if err := m.summaries.Save(ctx, state); err != nil {
		serr := &StorageError{Op: "saving summary", SessionID: sessionID, Err: err}
		m.fail(sessionID, runID, trigger, serr, start)
		return serr
	}
	if err := e.buf.Commit(text, state.CoveredUpTo); err != nil {
		// The summary is durable; rebuild from it on next use.
		e.loaded = false
		serr := &StorageError{Op: "committing compaction", SessionID: sessionID, Err: err}
		m.fail(sessionID, runID, trigger, serr, start)
		return serr
	}

	elapsed := time.Since(start)
	debug.Event("memory", "CompactionCompleted", fmt.Sprintf("session=%s run=%s covered=%d staged=%d tokens=%d took=%s",
		sessionID, runID, state.CoveredUpTo, e.buf.Len(), e.buf.Tokens(), elapsed))
	m.publish(pubsub.EventCompleted, events.NewCompactionCompletedEvent(sessionID, runID, trigger, folded, state.CoveredUpTo, elapsed))
	return nil
}

func (m *Manager) fail(sessionID, runID, trigger string, err error, start time.Time) {
	debug.Error("memory", err, fmt.Sprintf("compaction session=%s run=%s trigger=%s", sessionID, runID, trigger))
	m.publish(pubsub.EventFailed, events.NewCompactionFailedEvent(sessionID, runID, trigger, err, time.Since(start)))
}

func (m *Manager) publish(t pubsub.EventType, ev events.MemoryEvent) {
	if m.opts.Broker != nil {
		m.opts.Broker.Publish(t, ev)
	}
}
