package ops

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/policy"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type deletePlanItem struct {
	source      string
	destination string
	status      types.PreviewStatus
	reason      string
}

// PreviewDelete plans the delete for the requested extension set.
func (e *Engine) PreviewDelete(req *types.DeleteRequest) (*types.DeletePreviewResponse, error) {
	plan, err := e.buildDeletePlan(req)
	if err != nil {
		return nil, err
	}

	resp := &types.DeletePreviewResponse{Items: make([]types.DeletePreviewItem, 0, len(plan))}
	for _, item := range plan {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.DeletePreviewItem{
			SourcePath:      item.source,
			Action:          string(req.Mode),
			DestinationPath: item.destination,
			Status:          item.status,
			Reason:          item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteDelete disposes of the planned files by the requested mode.
func (e *Engine) ExecuteDelete(req *types.DeleteRequest) (*types.DeleteExecuteResponse, error) {
	executor.ClearCancel()
	plan, err := e.buildDeletePlan(req)
	if err != nil {
		return nil, err
	}

	items := make([]executor.Item, len(plan))
	for i := range plan {
		item := plan[i]
		items[i] = executor.Item{
			SourcePath: item.source,
			Skip:       item.status == types.StatusSkipped,
			SkipReason: item.reason,
			Action:     e.deleteAction(req.Mode, item),
		}
	}

	summary := executor.Run("delete", items, e.workers, e.progress)

	resp := &types.DeleteExecuteResponse{
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Details:   make([]types.DeleteExecuteDetail, len(plan)),
	}
	for i := range plan {
		resp.Details[i] = types.DeleteExecuteDetail{
			SourcePath:      plan[i].source,
			Action:          string(req.Mode),
			DestinationPath: plan[i].destination,
		}
	}
	for _, result := range summary.Results {
		resp.Details[result.Index].Status = result.Status
		resp.Details[result.Index].Reason = result.Reason
		e.logger.Item("delete", plan[result.Index].source, plan[result.Index].destination, string(result.Status), result.Reason)
	}
	return resp, nil
}

func (e *Engine) deleteAction(mode types.DeleteMode, item deletePlanItem) func() error {
	switch mode {
	case types.DeleteDirect:
		return func() error { return os.Remove(item.source) }
	case types.DeleteTrash:
		return func() error { return e.trash.Trash(item.source) }
	default: // retreat
		return func() error {
			if err := fsatomic.EnsureParent(item.destination); err != nil {
				return err
			}
			_, err := fsatomic.MoveReplace(item.source, item.destination)
			return err
		}
	}
}

func (e *Engine) buildDeletePlan(req *types.DeleteRequest) ([]deletePlanItem, error) {
	extensions, appErr := normalizeExtensions(req.Extensions)
	if appErr != nil {
		return nil, appErr
	}

	retreatDir := strings.TrimSpace(req.RetreatDir)
	if req.Mode == types.DeleteRetreat && retreatDir == "" {
		return nil, invalidRequest("retreat mode requires a retreat directory")
	}

	collector := collect.New(collect.NewExtensionSet(extensions...))
	collected, err := collector.Collect(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}

	resolver := policy.NewResolver(req.ConflictPolicy, fsatomic.NewReservations())
	plan := make([]deletePlanItem, 0, len(collected.Entries))
	for _, entry := range collected.Entries {
		item := deletePlanItem{source: entry.Path, status: types.StatusReady}
		if req.Mode == types.DeleteRetreat {
			base := filepath.Join(retreatDir, entry.Name)
			resolution := resolver.Resolve(base, entry.Path)
			item.destination = resolution.Destination
			item.status = resolution.Status
			item.reason = resolution.Reason
		}
		plan = append(plan, item)
	}
	return plan, nil
}

// normalizeExtensions lowercases, deduplicates, and validates the requested
// extension set. An empty result is an invalid request for delete.
func normalizeExtensions(values []string) ([]string, *AppError) {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		normalized := strings.ToLower(strings.TrimPrefix(trimmed, "."))
		normalized = strings.ReplaceAll(normalized, " ", "")
		if normalized == "" {
			continue
		}
		if strings.ContainsAny(normalized, `./\`) {
			return nil, invalidRequest("invalid extension format: %q", raw)
		}
		if !seen[normalized] {
			seen[normalized] = true
			out = append(out, normalized)
		}
	}
	if len(out) == 0 {
		return nil, invalidRequest("at least one extension is required")
	}
	return out, nil
}
