// Package executor runs plan items across a bounded worker pool with
// cancellation and ordered progress reporting. Items are dispatched in plan
// order; completion order is unspecified; progress events are emitted from
// a single collector goroutine so counts stay monotonic.
package executor

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ponpaku/creators-file-manager/internal/progress"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// cancelRequested is the process-wide cancellation flag. It is cleared at
// execute entry and set by an external signal; workers poll it at item
// boundaries.
var cancelRequested atomic.Bool

// RequestCancel sets the cancellation flag. Idempotent.
func RequestCancel() {
	cancelRequested.Store(true)
}

// ClearCancel resets the flag at the start of an execute call.
func ClearCancel() {
	cancelRequested.Store(false)
}

// CancelRequested reports the flag.
func CancelRequested() bool {
	return cancelRequested.Load()
}

// Item is one unit of executable work. Skip carries a plan-time skip
// through to the result without running the action.
type Item struct {
	SourcePath string
	Skip       bool
	SkipReason string
	// Action performs the mutation. It is called at most once, only for
	// non-skipped items while the run is not canceled.
	Action func() error
}

// ItemResult is the recorded outcome for one item, in completion order.
type ItemResult struct {
	Index  int
	Status types.ExecuteStatus
	Reason string
}

// Summary aggregates a run.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Canceled  bool
	Results   []ItemResult
}

// Workers returns the pool size: the available CPU parallelism.
func Workers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// Run executes the items and emits one progress event per completed item
// plus a final done event. Any error from an action is converted to a
// failed record; the run continues (no fail-fast). When cancellation is
// requested, in-flight items complete their current atomic step and the
// rest are skipped with reason "canceled".
func Run(operation string, items []Item, workers int, report progress.Func) Summary {
	if workers < 1 {
		workers = Workers()
	}
	if report == nil {
		report = func(types.OperationProgressEvent) {}
	}

	total := len(items)
	type indexed struct {
		index int
		item  Item
	}
	taskChan := make(chan indexed, total)
	resultChan := make(chan ItemResult, total)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				resultChan <- runOne(task.index, task.item)
			}
		}()
	}

	for i, item := range items {
		taskChan <- indexed{index: i, item: item}
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	summary := Summary{Results: make([]ItemResult, 0, total)}
	for result := range resultChan {
		summary.Processed++
		switch result.Status {
		case types.ExecSucceeded:
			summary.Succeeded++
		case types.ExecFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
		if !summary.Canceled && CancelRequested() {
			summary.Canceled = true
		}
		summary.Results = append(summary.Results, result)
		report(types.OperationProgressEvent{
			Operation:   operation,
			Processed:   summary.Processed,
			Total:       total,
			Succeeded:   summary.Succeeded,
			Failed:      summary.Failed,
			Skipped:     summary.Skipped,
			CurrentPath: items[result.Index].SourcePath,
			Canceled:    summary.Canceled,
		})
	}

	if CancelRequested() {
		summary.Canceled = true
	}
	report(types.OperationProgressEvent{
		Operation: operation,
		Processed: summary.Processed,
		Total:     total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Done:      true,
		Canceled:  summary.Canceled,
	})
	return summary
}

// RunSequential executes items one at a time, in plan order, on a single
// worker goroutine; it is Run with a pool size of one.
func RunSequential(operation string, items []Item, report progress.Func) Summary {
	return Run(operation, items, 1, report)
}

func runOne(index int, item Item) ItemResult {
	if CancelRequested() {
		return ItemResult{Index: index, Status: types.ExecSkipped, Reason: "canceled"}
	}
	if item.Skip {
		return ItemResult{Index: index, Status: types.ExecSkipped, Reason: item.SkipReason}
	}
	if err := item.Action(); err != nil {
		return ItemResult{Index: index, Status: types.ExecFailed, Reason: err.Error()}
	}
	return ItemResult{Index: index, Status: types.ExecSucceeded}
}
