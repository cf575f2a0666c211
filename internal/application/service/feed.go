package service

import (
	"sync"

	"github.com/garyjia/approval-console/internal/domain/event"
)

// DefaultFeedSize is the number of events a feed keeps
const DefaultFeedSize = 50

// Notifier receives console events
type Notifier interface {
	Publish(e *event.Event)
}

// EventFeed keeps the most recent console events in a ring buffer for the
// shell to show as transient notifications
type EventFeed struct {
	mu     sync.RWMutex
	events []*event.Event
	next   int
	full   bool
}

// NewEventFeed creates a feed holding up to size events
func NewEventFeed(size int) *EventFeed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &EventFeed{events: make([]*event.Event, size)}
}

// Publish appends e, evicting the oldest event when full
func (f *EventFeed) Publish(e *event.Event) {
	if e == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[f.next] = e
	f.next = (f.next + 1) % len(f.events)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns up to n events, newest first. n <= 0 returns all.
func (f *EventFeed) Recent(n int) []*event.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := f.next
	if f.full {
		count = len(f.events)
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]*event.Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (f.next - i + len(f.events)) % len(f.events)
		out = append(out, f.events[idx])
	}
	return out
}
