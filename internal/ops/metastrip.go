package ops

import (
	"errors"
	"os"
	"sync"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/exifmeta"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type stripPlanItem struct {
	source          string
	foundCategories []string
	tagsToStrip     int
	hasIPTC         bool
	hasXMP          bool
	status          types.PreviewStatus
	reason          string
}

// PreviewMetadataStrip scans each file's app segments and reports which of
// the selected categories are present.
func (e *Engine) PreviewMetadataStrip(req *types.MetadataStripRequest) (*types.MetadataStripPreviewResponse, error) {
	plan, err := e.buildStripPlan(req)
	if err != nil {
		return nil, err
	}

	resp := &types.MetadataStripPreviewResponse{Items: make([]types.MetadataStripPreviewItem, 0, len(plan))}
	for _, item := range plan {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.MetadataStripPreviewItem{
			SourcePath:      item.source,
			FoundCategories: item.foundCategories,
			TagsToStrip:     item.tagsToStrip,
			HasIPTC:         item.hasIPTC,
			HasXMP:          item.hasXMP,
			Status:          item.status,
			Reason:          item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteMetadataStrip rewrites each planned file in place with the
// selected categories removed. Entropy-coded data is untouched.
func (e *Engine) ExecuteMetadataStrip(req *types.MetadataStripRequest) (*types.MetadataStripExecuteResponse, error) {
	executor.ClearCancel()
	plan, err := e.buildStripPlan(req)
	if err != nil {
		return nil, err
	}

	cats := exifmeta.PresetCategories(req.Preset, req.Categories)
	fullClean := exifmeta.IsFullClean(req.Preset)

	var mu sync.Mutex
	stats := make([]exifmeta.StripStats, len(plan))
	items := make([]executor.Item, len(plan))
	for i := range plan {
		i := i
		item := plan[i]
		items[i] = executor.Item{
			SourcePath: item.source,
			Skip:       item.status == types.StatusSkipped,
			SkipReason: item.reason,
			Action: func() error {
				result, err := stripOne(item.source, cats, fullClean)
				if err != nil {
					return err
				}
				mu.Lock()
				stats[i] = result
				mu.Unlock()
				return nil
			},
		}
	}

	summary := executor.Run("metadataStrip", items, e.workers, e.progress)

	resp := &types.MetadataStripExecuteResponse{
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Details:   make([]types.MetadataStripExecuteDetail, len(plan)),
	}
	for i := range plan {
		resp.Details[i] = types.MetadataStripExecuteDetail{
			SourcePath:   plan[i].source,
			StrippedTags: stats[i].Tags,
			StrippedIPTC: stats[i].IPTC,
			StrippedXMP:  stats[i].XMP,
		}
	}
	for _, result := range summary.Results {
		resp.Details[result.Index].Status = result.Status
		resp.Details[result.Index].Reason = result.Reason
		e.logger.Item("metadataStrip", plan[result.Index].source, "", string(result.Status), result.Reason)
	}
	return resp, nil
}

func (e *Engine) buildStripPlan(req *types.MetadataStripRequest) ([]stripPlanItem, error) {
	collected, err := collect.New(nil).Collect(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	if len(collected.Entries) == 0 {
		return nil, invalidRequest("no target files found")
	}

	cats := exifmeta.PresetCategories(req.Preset, req.Categories)

	plan := make([]stripPlanItem, 0, len(collected.Entries))
	for _, entry := range collected.Entries {
		item := stripPlanItem{source: entry.Path}
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

		scan, scanErr := exifmeta.Scan(data)
		if scanErr != nil {
			item.status = types.StatusSkipped
			item.reason = "corrupt JPEG: " + scanErr.Error()
			plan = append(plan, item)
			continue
		}
		if scan.Empty() {
			item.status = types.StatusSkipped
			item.reason = "no metadata"
			plan = append(plan, item)
			continue
		}

		item.foundCategories = scan.FoundCategories(cats)
		item.tagsToStrip = scan.RemovableTags
		item.hasIPTC = scan.HasIPTC
		item.hasXMP = scan.HasXMP

		if len(item.foundCategories) == 0 {
			item.status = types.StatusSkipped
			item.reason = "selected categories not present"
			plan = append(plan, item)
			continue
		}
		item.status = types.StatusReady
		plan = append(plan, item)
	}
	return plan, nil
}

func stripOne(path string, cats types.StripCategories, fullClean bool) (exifmeta.StripStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return exifmeta.StripStats{}, err
	}
	out, stats, err := exifmeta.Strip(data, cats, fullClean)
	if err != nil {
		if errors.Is(err, exifmeta.ErrNothingToStrip) {
			// Planned ready but the rewrite removed nothing; keep the
			// file untouched and report the stats as empty.
			return exifmeta.StripStats{}, nil
		}
		return exifmeta.StripStats{}, err
	}
	if err := fsatomic.WriteReplace(path, out); err != nil {
		return exifmeta.StripStats{}, err
	}
	return stats, nil
}
