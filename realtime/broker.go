// Package realtime carries "the fuel log changed" notifications from the
// record store to whoever needs to reload.
package realtime

import (
	"errors"
	"sync"
	"time"
)

// Change types
const (
	ChangeInsert  = "INSERT"
	ChangeUpdate  = "UPDATE"
	ChangeDelete  = "DELETE"
	ChangeResync  = "RESYNC"  // notifications may have been missed
	ChangeRefresh = "REFRESH" // a reader reloaded its view
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity
const DefaultSubscriberBuffer = 16

// ErrBrokerClosed is returned when subscribing to a closed broker
var ErrBrokerClosed = errors.New("realtime: broker closed")

// Change is one change notification. Receivers treat it as a signal to
// reload; the payload is informational.
type Change struct {
	Type   string    `json:"type"`
	ID     string    `json:"id,omitempty"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher accepts change notifications
type Publisher interface {
	Publish(change Change)
}

// Notifier hands out change subscriptions
type Notifier interface {
	Subscribe() (*Subscription, error)
}

// Broker fans change notifications out to in-process subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the
// notification, which is harmless because a pending one already means
// "reload".
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]chan Change
	nextID uint64
	buffer int
	closed bool
}

// NewBroker creates a broker with the given per-subscriber buffer
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Broker{
		subs:   make(map[uint64]chan Change),
		buffer: buffer,
	}
}

// Publish delivers change to every current subscriber
func (b *Broker) Publish(change Change) {
	if b == nil {
		return
	}
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The caller must Close it.
func (b *Broker) Subscribe() (*Subscription, error) {
	if b == nil {
		return nil, ErrBrokerClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Change, b.buffer)
	b.subs[id] = ch

	return &Subscription{broker: b, id: id, ch: ch}, nil
}

// Subscribers returns the number of live subscriptions
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription; their Events channels are closed
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Subscription is a live registration with a Broker
type Subscription struct {
	broker *Broker
	id     uint64
	ch     chan Change
	once   sync.Once
}

// Events returns the notification channel. It is closed when the
// subscription or its broker is closed.
func (s *Subscription) Events() <-chan Change {
	if s == nil {
		return nil
	}
	return s.ch
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.broker == nil {
		return
	}
	s.once.Do(func() {
		s.broker.unsubscribe(s.id)
	})
}
