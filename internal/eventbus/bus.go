// Package eventbus fans call events out to in-process subscribers.
package eventbus

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/callassist/orchestrator/internal/domain"
)

// ErrSubscriberBufferFull is reported when a channel subscriber cannot keep up.
var ErrSubscriberBufferFull = errors.New("subscriber buffer full")

// Handler receives published events.
//
// Handle runs synchronously on the publisher's goroutine while the publisher
// may hold per-call locks. It must not block, and it must not call back into
// the publisher for the same call (Answer, End and so on) on that goroutine.
// Handlers that react to events hand the work to another goroutine.
type Handler interface {
	Handle(ev domain.CallEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev domain.CallEvent) error

// Handle calls f(ev).
func (f HandlerFunc) Handle(ev domain.CallEvent) error { return f(ev) }

// Subscription identifies one registered handler.
type Subscription struct {
	id      uint64
	handler Handler
	done    chan struct{}
	once    sync.Once
}

// Done is closed once the subscription is removed.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Bus delivers each published event to every subscriber, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns its subscription.
func (b *Bus) Subscribe(h Handler) *Subscription {
	return b.subscribe(h, make(chan struct{}))
}

func (b *Bus) subscribe(h Handler, done chan struct{}) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, handler: h, done: done}

	// Copy on write so snapshots taken by Publish stay valid.
	subs := make([]*Subscription, len(b.subs), len(b.subs)+1)
	copy(subs, b.subs)
	b.subs = append(subs, sub)
	return sub
}

// SubscribeChan registers a buffered channel subscriber. When the buffer is
// full the event is dropped for this subscriber only. The channel is never
// closed; watch Subscription.Done instead.
func (b *Bus) SubscribeChan(buffer int) (<-chan domain.CallEvent, *Subscription) {
	ch := make(chan domain.CallEvent, buffer)
	done := make(chan struct{})
	sub := b.subscribe(HandlerFunc(func(ev domain.CallEvent) error {
		select {
		case <-done:
			return nil
		default:
		}
		select {
		case ch <- ev:
			return nil
		default:
			return ErrSubscriberBufferFull
		}
	}), done)
	return ch, sub
}

// Unsubscribe removes sub. Removing an unknown or already removed
// subscription is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			subs := make([]*Subscription, 0, len(b.subs)-1)
			subs = append(subs, b.subs[:i]...)
			b.subs = append(subs, b.subs[i+1:]...)
			sub.once.Do(func() { close(sub.done) })
			return
		}
	}
}

// Publish delivers ev synchronously. A handler that fails or panics is logged
// and skipped for this event; it stays subscribed.
func (b *Bus) Publish(ev domain.CallEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := deliver(sub, ev); err != nil {
			log.Printf("WARN: subscriber %d failed on %s for call %s: %v", sub.id, ev.Type, ev.CallID, err)
		}
	}
}

func deliver(sub *Subscription, ev domain.CallEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sub.handler.Handle(ev)
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
