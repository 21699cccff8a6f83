// Package bridge forwards memory events from the pub/sub broker to a
// display sink.
package bridge

import (
	"fmt"
	"time"

	"github.com/guilhermegouw/chatmem/internal/events"
	"github.com/guilhermegouw/chatmem/internal/pubsub"
)

// Notice is a memory event rendered for display.
type Notice struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	Text      string
	Failed    bool
	Event     pubsub.Event[events.MemoryEvent]
}

// NoticeFor renders ev. Only finished compactions produce a notice; turn
// appends and compaction starts are too chatty to show.
func NoticeFor(ev pubsub.Event[events.MemoryEvent]) (Notice, bool) {
	p := ev.Payload
	n := Notice{SessionID: p.SessionID, Event: ev}

	switch p.Type {
	case events.MemoryEventCompactionCompleted:
		n.Text = fmt.Sprintf("[memory] folded %d turns, summary covers up to %d (%s, %s)",
			p.Folded, p.CoveredUpTo, p.Trigger, p.Duration.Round(time.Millisecond))
	case events.MemoryEventCompactionFailed:
		n.Text = fmt.Sprintf("[memory] %s compaction failed: %v", p.Trigger, p.Err)
		n.Failed = true
	default:
		return Notice{}, false
	}
	return n, true
}
