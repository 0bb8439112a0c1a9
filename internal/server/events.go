package server

import (
	"sync"

	"downtube/internal/models"
)

// SeqEvent is a push notification with its position in the feed.
type SeqEvent struct {
	Seq uint64 `json:"seq"`
	models.Event
}

// EventLog is the output sink the core posts to: a bounded ring of
// push notifications that clients drain by sequence number. It decides
// nothing about sampling; every reported state change is retained until
// overwritten.
type EventLog struct {
	mu   sync.Mutex
	ring []SeqEvent
	size int
	next uint64
}

// NewEventLog returns a ring holding the most recent size events.
func NewEventLog(size int) *EventLog {
	return &EventLog{
		ring: make([]SeqEvent, 0, size),
		size: size,
	}
}

// Notify implements models.Notifier.
func (l *EventLog) Notify(e models.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	se := SeqEvent{Seq: l.next, Event: e}
	l.next++

	if len(l.ring) < l.size {
		l.ring = append(l.ring, se)
		return
	}
	copy(l.ring, l.ring[1:])
	l.ring[len(l.ring)-1] = se
}

// Since returns events with sequence >= seq and the next sequence to
// poll from.
func (l *EventLog) Since(seq uint64) ([]SeqEvent, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []SeqEvent
	for _, se := range l.ring {
		if se.Seq >= seq {
			out = append(out, se)
		}
	}
	return out, l.next
}
