package ops

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/metadata"
	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/internal/policy"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type renamePlanItem struct {
	source      string
	destination string
	status      types.PreviewStatus
	reason      string
}

// PreviewRename plans the rename without touching the file system.
func (e *Engine) PreviewRename(req *types.RenameRequest) (*types.RenamePreviewResponse, error) {
	now := time.Now()
	plan, err := e.buildRenamePlan(req, now)
	if err != nil {
		return nil, err
	}

	resp := &types.RenamePreviewResponse{Items: make([]types.RenamePreviewItem, 0, len(plan))}
	for _, item := range plan {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.RenamePreviewItem{
			SourcePath:      item.source,
			DestinationPath: item.destination,
			Status:          item.status,
			Reason:          item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteRename runs the plan. An in-place rename (no output directory)
// removes the source on success; every byte of content is preserved.
func (e *Engine) ExecuteRename(req *types.RenameRequest) (*types.RenameExecuteResponse, error) {
	executor.ClearCancel()
	now := time.Now()
	plan, err := e.buildRenamePlan(req, now)
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
			Action: func() error {
				if err := fsatomic.EnsureParent(item.destination); err != nil {
					return err
				}
				_, err := fsatomic.MoveReplace(item.source, item.destination)
				return err
			},
		}
	}

	// A destination that is also another item's source makes parallel
	// moves unsafe (2.jpg -> 1.jpg while 3.jpg -> 2.jpg); run those plans
	// sequentially in plan order.
	workers := e.workers
	if renameOverlapsSources(plan) {
		workers = 1
	}

	summary := executor.Run("rename", items, workers, e.progress)

	resp := &types.RenameExecuteResponse{
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Details:   make([]types.RenameExecuteDetail, len(plan)),
	}
	for i := range plan {
		resp.Details[i] = types.RenameExecuteDetail{
			SourcePath:      plan[i].source,
			DestinationPath: plan[i].destination,
		}
	}
	for _, result := range summary.Results {
		resp.Details[result.Index].Status = result.Status
		resp.Details[result.Index].Reason = result.Reason
		e.logger.Item("rename", plan[result.Index].source, plan[result.Index].destination, string(result.Status), result.Reason)
	}
	return resp, nil
}

func (e *Engine) buildRenamePlan(req *types.RenameRequest, execTime time.Time) ([]renamePlanItem, error) {
	if strings.TrimSpace(req.Template) == "" {
		return nil, invalidRequest("template must not be empty")
	}

	collector := collect.New(collect.RenameExtensions)
	collected, err := collector.Collect(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	if len(collected.Entries) == 0 {
		if collected.SkippedByExtension > 0 {
			return nil, invalidRequest("no supported files (%d rejected by extension)", collected.SkippedByExtension)
		}
		return nil, invalidRequest("no target files found")
	}
	if req.OutputDir != "" && collected.InputRoot == "" && len(collected.Entries) > 1 {
		return nil, invalidRequest("inputs from different volumes need a common parent to use an output directory")
	}

	extractor := metadata.New(e.probe)
	needsCapture := templateNeedsCapture(req.Template)
	usesExt := templateUsesExt(req.Template)
	resolver := policy.NewResolver(req.ConflictPolicy, fsatomic.NewReservations())

	plan := make([]renamePlanItem, 0, len(collected.Entries))
	for index, entry := range collected.Entries {
		item := renamePlanItem{source: entry.Path}

		ext := filepath.Ext(entry.Name)
		origStem := strings.TrimSuffix(entry.Name, ext)
		ext = strings.TrimPrefix(ext, ".")

		timestamp, ok := e.resolveTimestamp(extractor, entry, req.Source, execTime)
		if needsCapture && !ok {
			item.status = types.StatusSkipped
			item.reason = "no datetime"
			plan = append(plan, item)
			continue
		}

		ctx := templateContext{
			executed: &execTime,
			sequence: index + 1,
			orig:     origStem,
			ext:      strings.ToLower(ext),
		}
		if ok {
			ts := timestamp
			ctx.capture = &ts
		}

		rendered, renderErr := renderTemplate(req.Template, ctx)
		if renderErr != nil {
			item.status = types.StatusSkipped
			item.reason = renderErr.Error()
			plan = append(plan, item)
			continue
		}
		name := strings.TrimSpace(rendered)
		if name == "" {
			item.status = types.StatusSkipped
			item.reason = "template produced an empty name"
			plan = append(plan, item)
			continue
		}
		if fsatomic.ContainsInvalidChars(name) {
			item.status = types.StatusSkipped
			item.reason = "invalid name"
			plan = append(plan, item)
			continue
		}
		if !usesExt && ext != "" {
			// Re-append the original extension preserving its case.
			name += "." + ext
		}

		base := filepath.Join(filepath.Dir(entry.Path), name)
		if req.OutputDir != "" {
			relative := pathnorm.RelativeOrBase(entry.Path, collected.InputRoot)
			base = filepath.Join(req.OutputDir, filepath.Dir(relative), name)
		}

		resolution := resolver.Resolve(base, entry.Path)
		item.destination = resolution.Destination
		item.status = resolution.Status
		item.reason = resolution.Reason
		plan = append(plan, item)
	}

	applyLastWriterWins(req.ConflictPolicy, plan)
	return plan, nil
}

func (e *Engine) resolveTimestamp(extractor *metadata.Extractor, entry types.FileEntry, source types.RenameSource, execTime time.Time) (time.Time, bool) {
	switch source {
	case types.SourceCurrentTime:
		return execTime, true
	case types.SourceModifiedOnly:
		return metadata.ModifiedTime(entry)
	default: // captureThenModified
		if t, _, ok := extractor.CaptureTime(entry); ok {
			return t, true
		}
		return metadata.ModifiedTime(entry)
	}
}

// applyLastWriterWins demotes earlier overwrite-policy items sharing a
// destination so only the last writer stays ready.
func applyLastWriterWins(policyName types.ConflictPolicy, plan []renamePlanItem) {
	if policyName != types.ConflictOverwrite {
		return
	}
	destinations := make([]string, len(plan))
	statuses := make([]types.PreviewStatus, len(plan))
	for i := range plan {
		destinations[i] = plan[i].destination
		statuses[i] = plan[i].status
	}
	for _, idx := range policy.LastWriterWins(destinations, statuses) {
		plan[idx].status = types.StatusSkipped
		plan[idx].reason = "collision: replaced by a later file with the same destination"
	}
}

func renameOverlapsSources(plan []renamePlanItem) bool {
	sourceKeys := make(map[string]bool, len(plan))
	for i := range plan {
		sourceKeys[pathnorm.Key(plan[i].source)] = true
	}
	for i := range plan {
		if plan[i].destination == "" || plan[i].status != types.StatusReady {
			continue
		}
		key := pathnorm.Key(plan[i].destination)
		if sourceKeys[key] && key != pathnorm.Key(plan[i].source) {
			return true
		}
	}
	return false
}
