package timer

import (
	"sync"

	"github.com/google/uuid"
)

// EventType defines the type of timer event.
type EventType string

const (
	EventTick     EventType = "timer-tick"
	EventComplete EventType = "timer-complete"
)

// Event is published by the scheduler. Tick events carry RemainingMs, or
// OvertimeMs with Overtime set once a break runs past its end. Complete
// events carry RecordID, CompletedWorkCount and Overtime.
type Event struct {
	Type EventType `json:"type"`
	Kind Kind      `json:"interval_type"`

	RemainingMs int64 `json:"remaining_ms,omitempty"`
	OvertimeMs  int64 `json:"overtime_ms,omitempty"`

	RecordID           int64  `json:"interval_id,omitempty"`
	CompletedWorkCount uint32 `json:"completed_work_count,omitempty"`
	Overtime           bool   `json:"overtime,omitempty"`
}

// Publisher receives events from the scheduler.
type Publisher interface {
	Publish(event Event)
}

// Subscription is one registered observer.
type Subscription struct {
	ID uuid.UUID
	C  <-chan Event
}

// Broker fans events out to subscribers. Delivery never blocks the
// publisher: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan Event
	closed bool
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]chan Event)}
}

// Subscribe registers a new observer channel.
func (b *Broker) Subscribe(buffer int) Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	id := uuid.New()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return Subscription{ID: id, C: ch}
	}
	b.subs[id] = ch
	return Subscription{ID: id, C: ch}
}

// Unsubscribe removes the observer and closes its channel.
func (b *Broker) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber with room for it.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes all subscriber channels. Later subscriptions are closed
// immediately.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
