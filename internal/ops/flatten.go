package ops

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/internal/policy"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type flattenPlanItem struct {
	source      string
	destination string
	status      types.PreviewStatus
	reason      string
}

type flattenPlan struct {
	outputDir  string
	items      []flattenPlanItem
	collisions int
}

// PreviewFlatten plans copying every file under the input directory into a
// single flat output directory.
func (e *Engine) PreviewFlatten(req *types.FlattenRequest) (*types.FlattenPreviewResponse, error) {
	plan, err := e.buildFlattenPlan(req, time.Now())
	if err != nil {
		return nil, err
	}

	resp := &types.FlattenPreviewResponse{
		OutputDir:  plan.outputDir,
		Collisions: plan.collisions,
		Items:      make([]types.FlattenPreviewItem, 0, len(plan.items)),
	}
	for _, item := range plan.items {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.FlattenPreviewItem{
			SourcePath:      item.source,
			DestinationPath: item.destination,
			Status:          item.status,
			Reason:          item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteFlatten copies the planned files. Sources are left in place.
func (e *Engine) ExecuteFlatten(req *types.FlattenRequest) (*types.FlattenExecuteResponse, error) {
	executor.ClearCancel()
	plan, err := e.buildFlattenPlan(req, time.Now())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(plan.outputDir, 0755); err != nil {
		return nil, internalError(err)
	}

	items := make([]executor.Item, len(plan.items))
	for i := range plan.items {
		item := plan.items[i]
		items[i] = executor.Item{
			SourcePath: item.source,
			Skip:       item.status == types.StatusSkipped,
			SkipReason: item.reason,
			Action: func() error {
				return fsatomic.CopyReplace(item.source, item.destination)
			},
		}
	}

	summary := executor.Run("flatten", items, e.workers, e.progress)

	resp := &types.FlattenExecuteResponse{
		OutputDir: plan.outputDir,
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Details:   make([]types.FlattenExecuteDetail, len(plan.items)),
	}
	for i := range plan.items {
		resp.Details[i] = types.FlattenExecuteDetail{
			SourcePath:      plan.items[i].source,
			DestinationPath: plan.items[i].destination,
		}
	}
	for _, result := range summary.Results {
		resp.Details[result.Index].Status = result.Status
		resp.Details[result.Index].Reason = result.Reason
		e.logger.Item("flatten", plan.items[result.Index].source, plan.items[result.Index].destination, string(result.Status), result.Reason)
	}
	return resp, nil
}

func (e *Engine) buildFlattenPlan(req *types.FlattenRequest, now time.Time) (*flattenPlan, error) {
	inputDir, err := pathnorm.Canonicalize(req.InputDir)
	if err != nil {
		return nil, invalidRequest("input directory not found: %s", req.InputDir)
	}
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, invalidRequest("input path must be a directory")
	}

	outputDir, appErr := resolveOutputDir(inputDir, req.OutputDir, "_flattened_", now)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := validateFlattenOutput(inputDir, outputDir); appErr != nil {
		return nil, appErr
	}

	collector := collect.New(nil)
	collected, err := collector.Collect([]string{inputDir}, true)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	if len(collected.Entries) == 0 {
		return nil, invalidRequest("input directory contains no files")
	}

	resolver := policy.NewResolver(req.ConflictPolicy, fsatomic.NewReservations())
	plan := &flattenPlan{outputDir: outputDir}
	for _, entry := range collected.Entries {
		base := filepath.Join(outputDir, entry.Name)
		collision := resolver.Reservations().Reserved(base) || pathnorm.Exists(base)
		if collision {
			plan.collisions++
		}
		resolution := resolver.Resolve(base, entry.Path)
		plan.items = append(plan.items, flattenPlanItem{
			source:      entry.Path,
			destination: resolution.Destination,
			status:      resolution.Status,
			reason:      resolution.Reason,
		})
	}

	applyFlattenLastWriterWins(req.ConflictPolicy, plan.items)
	return plan, nil
}

func applyFlattenLastWriterWins(policyName types.ConflictPolicy, items []flattenPlanItem) {
	if policyName != types.ConflictOverwrite {
		return
	}
	destinations := make([]string, len(items))
	statuses := make([]types.PreviewStatus, len(items))
	for i := range items {
		destinations[i] = items[i].destination
		statuses[i] = items[i].status
	}
	for _, idx := range policy.LastWriterWins(destinations, statuses) {
		items[idx].status = types.StatusSkipped
		items[idx].reason = "collision: replaced by a later file with the same destination"
	}
}
