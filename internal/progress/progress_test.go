package progress

import (
	"testing"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(8)
	defer cancel()

	for i := 1; i <= 3; i++ {
		bus.Publish(types.OperationProgressEvent{Operation: "rename", Processed: i})
	}

	for i := 1; i <= 3; i++ {
		event := <-ch
		if event.Processed != i {
			t.Errorf("expected ordered delivery, got %d at position %d", event.Processed, i)
		}
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	cancel()

	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(types.OperationProgressEvent{Operation: "rename"})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe(1)
	defer cancel()

	// Buffer of one: the second publish is dropped, not blocked on.
	bus.Publish(types.OperationProgressEvent{Processed: 1})
	bus.Publish(types.OperationProgressEvent{Processed: 2})
}
