package ops

import (
	"errors"
	"os"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/exifmeta"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type exifOffsetPlanItem struct {
	source    string
	original  string
	corrected string
	status    types.PreviewStatus
	reason    string
}

// PreviewExifOffset reads the datetime tags and reports the corrected
// values without writing anything.
func (e *Engine) PreviewExifOffset(req *types.ExifOffsetRequest) (*types.ExifOffsetPreviewResponse, error) {
	plan, err := e.buildExifOffsetPlan(req)
	if err != nil {
		return nil, err
	}

	resp := &types.ExifOffsetPreviewResponse{Items: make([]types.ExifOffsetPreviewItem, 0, len(plan))}
	for _, item := range plan {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.ExifOffsetPreviewItem{
			SourcePath:        item.source,
			OriginalDateTime:  item.original,
			CorrectedDateTime: item.corrected,
			Status:            item.status,
			Reason:            item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteExifOffset rewrites the APP1 segment of each planned file in
// place, shifting every present datetime tag by the requested offset.
func (e *Engine) ExecuteExifOffset(req *types.ExifOffsetRequest) (*types.ExifOffsetExecuteResponse, error) {
	executor.ClearCancel()
	plan, err := e.buildExifOffsetPlan(req)
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
				return offsetOne(item.source, req.OffsetSeconds)
			},
		}
	}

	summary := executor.Run("exifOffset", items, e.workers, e.progress)

	resp := &types.ExifOffsetExecuteResponse{
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Details:   make([]types.ExifOffsetExecuteDetail, len(plan)),
	}
	for i := range plan {
		resp.Details[i] = types.ExifOffsetExecuteDetail{SourcePath: plan[i].source}
	}
	for _, result := range summary.Results {
		detail := &resp.Details[result.Index]
		detail.Status = result.Status
		detail.Reason = result.Reason
		if result.Status == types.ExecSucceeded && plan[result.Index].original != "" {
			detail.Reason = plan[result.Index].original + " -> " + plan[result.Index].corrected
		}
		e.logger.Item("exifOffset", plan[result.Index].source, "", string(result.Status), detail.Reason)
	}
	return resp, nil
}

func (e *Engine) buildExifOffsetPlan(req *types.ExifOffsetRequest) ([]exifOffsetPlanItem, error) {
	collected, err := collect.New(nil).Collect(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	if len(collected.Entries) == 0 {
		return nil, invalidRequest("no target files found")
	}

	plan := make([]exifOffsetPlanItem, 0, len(collected.Entries))
	for _, entry := range collected.Entries {
		item := exifOffsetPlanItem{source: entry.Path}
		if !collect.JpegExtensions.Matches(entry.Path) {
			item.status = types.StatusSkipped
			item.reason = "unsupported"
			plan = append(plan, item)
			continue
		}

		data, readErr := os.ReadFile(entry.Path)
		if readErr != nil {
			item.status = types.StatusSkipped
			item.reason = readErr.Error()
			plan = append(plan, item)
			continue
		}

		original, ok := exifmeta.ReadDateTimeString(data)
		if !ok {
			item.status = types.StatusSkipped
			item.reason = "no datetime"
			plan = append(plan, item)
			continue
		}
		item.original = original

		corrected, offsetErr := exifmeta.ApplyOffset(original, req.OffsetSeconds)
		if offsetErr != nil {
			item.status = types.StatusSkipped
			item.reason = "offset result out of range"
			plan = append(plan, item)
			continue
		}
		item.corrected = corrected
		item.status = types.StatusReady
		plan = append(plan, item)
	}
	return plan, nil
}

// offsetOne applies the offset to every datetime field of one file and
// rewrites it atomically in place.
func offsetOne(path string, offsetSeconds int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	patched, _, err := exifmeta.OffsetDateTimes(data, offsetSeconds)
	if err != nil {
		if errors.Is(err, exifmeta.ErrOutOfRange) {
			return errors.New("offset result out of range")
		}
		return err
	}
	return fsatomic.WriteReplace(path, patched)
}
