package executor

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func TestRun_CountsAndDetails(t *testing.T) {
	ClearCancel()

	items := []Item{
		{SourcePath: "a", Action: func() error { return nil }},
		{SourcePath: "b", Action: func() error { return errors.New("boom") }},
		{SourcePath: "c", Skip: true, SkipReason: "collision"},
	}

	summary := Run("test", items, 2, nil)

	if summary.Processed != 3 || summary.Succeeded != 1 || summary.Failed != 1 || summary.Skipped != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	for _, result := range summary.Results {
		switch result.Index {
		case 0:
			if result.Status != types.ExecSucceeded {
				t.Errorf("item 0 should succeed: %+v", result)
			}
		case 1:
			if result.Status != types.ExecFailed || result.Reason != "boom" {
				t.Errorf("item 1 should fail with reason: %+v", result)
			}
		case 2:
			if result.Status != types.ExecSkipped || result.Reason != "collision" {
				t.Errorf("item 2 should carry the plan-time skip: %+v", result)
			}
		}
	}
}

func TestRun_ProgressMonotonicAndFinalEvent(t *testing.T) {
	ClearCancel()

	items := make([]Item, 10)
	for i := range items {
		items[i] = Item{SourcePath: "f", Action: func() error { return nil }}
	}

	var events []types.OperationProgressEvent
	summary := Run("test", items, 4, func(event types.OperationProgressEvent) {
		events = append(events, event)
	})

	if summary.Processed != 10 {
		t.Fatalf("expected 10 processed, got %d", summary.Processed)
	}
	if len(events) != 11 {
		t.Fatalf("expected one event per item plus the final event, got %d", len(events))
	}

	prev := types.OperationProgressEvent{}
	for _, event := range events {
		if event.Processed < prev.Processed || event.Succeeded < prev.Succeeded ||
			event.Failed < prev.Failed || event.Skipped < prev.Skipped {
			t.Errorf("counts must be monotonic: %+v after %+v", event, prev)
		}
		if event.Processed != event.Succeeded+event.Failed+event.Skipped {
			t.Errorf("processed must equal succeeded+failed+skipped: %+v", event)
		}
		prev = event
	}

	final := events[len(events)-1]
	if !final.Done || final.Canceled {
		t.Errorf("unexpected final event: %+v", final)
	}
}

func TestRun_Cancellation(t *testing.T) {
	ClearCancel()
	t.Cleanup(ClearCancel)

	var started atomic.Int32
	items := make([]Item, 100)
	for i := range items {
		items[i] = Item{
			SourcePath: "f",
			Action: func() error {
				if started.Add(1) == 5 {
					RequestCancel()
				}
				return nil
			},
		}
	}

	summary := Run("test", items, 1, nil)

	if !summary.Canceled {
		t.Fatal("run should be marked canceled")
	}
	if summary.Processed != 100 {
		t.Errorf("every item must be accounted for, got %d", summary.Processed)
	}
	if summary.Skipped == 0 {
		t.Error("items after the cancel point should be skipped")
	}
	for _, result := range summary.Results {
		if result.Status == types.ExecSkipped && result.Reason != "canceled" {
			t.Errorf("canceled skips must carry reason canceled: %+v", result)
		}
	}
}

func TestCancelFlag(t *testing.T) {
	ClearCancel()
	if CancelRequested() {
		t.Fatal("flag should start cleared")
	}
	RequestCancel()
	RequestCancel() // idempotent
	if !CancelRequested() {
		t.Fatal("flag should be set")
	}
	ClearCancel()
	if CancelRequested() {
		t.Fatal("flag should be cleared")
	}
}
