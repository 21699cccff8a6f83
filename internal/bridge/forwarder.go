package bridge

import (
	"context"
	"sync"

	"github.com/guilhermegouw/chatmem/internal/debug"
	"github.com/guilhermegouw/chatmem/internal/events"
	"github.com/guilhermegouw/chatmem/internal/pubsub"
)

// Sink receives notices from a Forwarder.
type Sink interface {
	Send(Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notice)

// Send implements Sink.
func (f SinkFunc) Send(n Notice) { f(n) }

// Forwarder subscribes to the memory broker and forwards compaction
// notices to a sink.
type Forwarder struct { //nolint:govet // fieldalignment: preserving logical field order
	broker pubsub.Subscriber[events.MemoryEvent]
	sink   Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sessionFilter string // Only forward events for this session
}

// Option configures the Forwarder.
type Option func(*Forwarder)

// WithSessionFilter only forwards events for the specified session.
func WithSessionFilter(sessionID string) Option {
	return func(f *Forwarder) {
		f.sessionFilter = sessionID
	}
}

// NewForwarder creates a new forwarder.
func NewForwarder(broker pubsub.Subscriber[events.MemoryEvent], sink Sink, opts ...Option) *Forwarder {
	f := &Forwarder{
		broker: broker,
		sink:   sink,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Start begins forwarding events. Call Stop to shut down.
func (f *Forwarder) Start(ctx context.Context) {
	f.ctx, f.cancel = context.WithCancel(ctx)

	// Subscribe before returning so no event published after Start is missed.
	ch := f.broker.Subscribe(f.ctx)

	f.wg.Add(1)
	go f.forward(ch)

	debug.Event("bridge", "start", "memory forwarder started")
}

// Stop shuts down the forwarder and waits for it to drain.
func (f *Forwarder) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	debug.Event("bridge", "stop", "memory forwarder stopped")
}

func (f *Forwarder) forward(ch <-chan pubsub.Event[events.MemoryEvent]) {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}

			if f.sessionFilter != "" && event.Payload.SessionID != f.sessionFilter {
				continue
			}

			if n, ok := NoticeFor(event); ok {
				f.sink.Send(n)
			}
		}
	}
}
