package ingress

import (
	"context"
	"errors"
	"log"

	"github.com/callassist/orchestrator/internal/domain"
)

// ErrQueueFull is returned by Handle when the forwarder is backed up.
var ErrQueueFull = errors.New("ingress forward queue full")

// Forwarder is an event bus handler that pushes events to the gateway from
// its own goroutine, so publishing never waits on the network.
type Forwarder struct {
	client *Client
	queue  chan domain.CallEvent
}

// NewForwarder creates a forwarder with a queue of size events.
func NewForwarder(client *Client, size int) *Forwarder {
	if size <= 0 {
		size = 256
	}
	return &Forwarder{client: client, queue: make(chan domain.CallEvent, size)}
}

// Handle enqueues ev.
func (f *Forwarder) Handle(ev domain.CallEvent) error {
	select {
	case f.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run pushes queued events in order until ctx is done.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-f.queue:
			if err := f.client.PushEvent(ctx, ev); err != nil && ctx.Err() == nil {
				log.Printf("WARN: forward %s for call %s failed: %v", ev.Type, ev.CallID, err)
			}
		}
	}
}
