// Package progress carries typed progress events from the executor to
// subscribers. Events for a given operation are totally ordered and their
// cumulative counts are monotonic.
package progress

import (
	"sync"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// Func receives operation progress events.
type Func func(types.OperationProgressEvent)

// EstimateFunc receives compress estimate progress events.
type EstimateFunc func(types.EstimateProgressEvent)

// Bus fans events out to subscribers. Publishing is serialized, so each
// subscriber observes events in publish order.
type Bus struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan types.OperationProgressEvent
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan types.OperationProgressEvent)}
}

// Subscribe registers a buffered event channel. The returned cancel
// function closes and removes it.
func (b *Bus) Subscribe(buffer int) (<-chan types.OperationProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan types.OperationProgressEvent, buffer)
	b.subscribers[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber. A subscriber whose buffer
// is full loses the event rather than blocking the run.
func (b *Bus) Publish(event types.OperationProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Callback returns a Func that publishes to the bus.
func (b *Bus) Callback() Func {
	return func(event types.OperationProgressEvent) {
		b.Publish(event)
	}
}
