package ops

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ponpaku/creators-file-manager/internal/collect"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/exifmeta"
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/jpegseg"
	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/internal/policy"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type compressPlanItem struct {
	source        string
	destination   string
	sourceSize    int64
	estimatedSize int64
	status        types.PreviewStatus
	reason        string
}

type compressPlan struct {
	outputDir        string
	resizePercent    float64
	quality          int
	tolerancePercent float64
	items            []compressPlanItem
	warnings         int
}

// CollectInfoCompress reports how many JPEG files the inputs contain and
// their total size, for sizing the target-size slider.
func (e *Engine) CollectInfoCompress(inputPaths []string, includeSubfolders bool) (*types.CompressCollectInfo, error) {
	collected, err := collect.New(collect.JpegExtensions).Collect(inputPaths, includeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	info := &types.CompressCollectInfo{FileCount: len(collected.Entries)}
	for _, entry := range collected.Entries {
		info.TotalSize += entry.Size
	}
	return info, nil
}

// EstimateCompress samples up to ten files at the given parameters and
// scales the measured compression ratio to the full input set.
func (e *Engine) EstimateCompress(inputPaths []string, includeSubfolders bool, resizePercent float64, quality int) (*types.CompressEstimate, error) {
	collected, err := collect.New(collect.JpegExtensions).Collect(inputPaths, includeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}

	estimate := &types.CompressEstimate{FileCount: len(collected.Entries)}
	for _, entry := range collected.Entries {
		estimate.TotalSourceSize += entry.Size
	}
	if len(collected.Entries) == 0 || estimate.TotalSourceSize == 0 {
		return estimate, nil
	}

	paths := make([]string, len(collected.Entries))
	for i, entry := range collected.Entries {
		paths[i] = entry.Path
	}
	ratio := e.sampleRatio(samplePaths(paths, 10), clampResize(resizePercent), clampQuality(quality))
	estimate.EstimatedTotalSize = int64(math.Round(float64(estimate.TotalSourceSize) * ratio))
	return estimate, nil
}

// PreviewCompress plans the recompression, solving for effective
// parameters when a target size is requested.
func (e *Engine) PreviewCompress(req *types.CompressRequest) (*types.CompressPreviewResponse, error) {
	plan, err := e.buildCompressPlan(req, time.Now())
	if err != nil {
		return nil, err
	}

	resp := &types.CompressPreviewResponse{
		OutputDir:              plan.outputDir,
		EffectiveResizePercent: plan.resizePercent,
		EffectiveQuality:       plan.quality,
		TargetSizeKB:           req.TargetSizeKB,
		TolerancePercent:       plan.tolerancePercent,
		Warnings:               plan.warnings,
		Items:                  make([]types.CompressPreviewItem, 0, len(plan.items)),
	}
	for _, item := range plan.items {
		if item.status == types.StatusReady {
			resp.Ready++
		} else {
			resp.Skipped++
		}
		resp.Items = append(resp.Items, types.CompressPreviewItem{
			SourcePath:      item.source,
			DestinationPath: item.destination,
			SourceSize:      item.sourceSize,
			EstimatedSize:   item.estimatedSize,
			Status:          item.status,
			Reason:          item.reason,
		})
	}
	resp.Total = resp.Ready + resp.Skipped
	return resp, nil
}

// ExecuteCompress re-encodes the planned files into the output directory.
func (e *Engine) ExecuteCompress(req *types.CompressRequest) (*types.CompressExecuteResponse, error) {
	executor.ClearCancel()
	plan, err := e.buildCompressPlan(req, time.Now())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(plan.outputDir, 0755); err != nil {
		return nil, internalError(err)
	}

	outputSizes := make([]int64, len(plan.items))
	items := make([]executor.Item, len(plan.items))
	for i := range plan.items {
		i := i
		item := plan.items[i]
		items[i] = executor.Item{
			SourcePath: item.source,
			Skip:       item.status == types.StatusSkipped,
			SkipReason: item.reason,
			Action: func() error {
				size, err := compressOne(item.source, item.destination, plan.resizePercent, plan.quality, req.PreserveExif)
				outputSizes[i] = size
				return err
			},
		}
	}

	summary := executor.Run("compress", items, e.workers, e.progress)

	resp := &types.CompressExecuteResponse{
		OutputDir:              plan.outputDir,
		EffectiveResizePercent: plan.resizePercent,
		EffectiveQuality:       plan.quality,
		Processed:              summary.Processed,
		Succeeded:              summary.Succeeded,
		Failed:                 summary.Failed,
		Skipped:                summary.Skipped,
		Details:                make([]types.CompressExecuteDetail, len(plan.items)),
	}
	for i := range plan.items {
		resp.Details[i] = types.CompressExecuteDetail{
			SourcePath:      plan.items[i].source,
			DestinationPath: plan.items[i].destination,
			OutputSize:      outputSizes[i],
		}
	}
	for _, result := range summary.Results {
		resp.Details[result.Index].Status = result.Status
		resp.Details[result.Index].Reason = result.Reason
		e.logger.Item("compress", plan.items[result.Index].source, plan.items[result.Index].destination, string(result.Status), result.Reason)
	}
	return resp, nil
}

func (e *Engine) buildCompressPlan(req *types.CompressRequest, now time.Time) (*compressPlan, error) {
	resize := clampResize(req.ResizePercent)
	quality := clampQuality(req.Quality)
	tolerance := req.TolerancePercent
	if tolerance <= 0 {
		tolerance = 10.0
	}

	collected, err := collect.New(nil).Collect(req.InputPaths, req.IncludeSubfolders)
	if err != nil {
		return nil, invalidRequest("%s", err.Error())
	}
	if len(collected.Entries) == 0 {
		return nil, invalidRequest("no target files found")
	}
	if req.OutputDir == "" && collected.InputRoot == "" && len(collected.Entries) > 1 {
		return nil, invalidRequest("inputs share no common root; an output directory is required")
	}

	outputDir, appErr := resolveOutputDir(collected.InputRoot, req.OutputDir, "_compressed_", now)
	if appErr != nil {
		return nil, appErr
	}

	var jpegPaths []string
	var totalSource int64
	for _, entry := range collected.Entries {
		if collect.JpegExtensions.Matches(entry.Path) {
			jpegPaths = append(jpegPaths, entry.Path)
			totalSource += entry.Size
		}
	}

	if req.TargetSizeKB > 0 && len(jpegPaths) > 0 {
		resize, quality = e.solveTargetSize(jpegPaths, totalSource, req.TargetSizeKB*1024, quality)
	}

	resolver := policy.NewResolver(req.ConflictPolicy, fsatomic.NewReservations())
	plan := &compressPlan{
		outputDir:        outputDir,
		resizePercent:    resize,
		quality:          quality,
		tolerancePercent: tolerance,
	}

	perFileTargetKB := int64(0)
	if req.TargetSizeKB > 0 {
		perFileTargetKB = req.TargetSizeKB / int64(max(len(jpegPaths), 1))
	}

	for _, entry := range collected.Entries {
		item := compressPlanItem{source: entry.Path, sourceSize: entry.Size}
		if !collect.JpegExtensions.Matches(entry.Path) {
			item.status = types.StatusSkipped
			item.reason = "unsupported"
			plan.items = append(plan.items, item)
			continue
		}

		item.estimatedSize = estimateSize(entry.Size, resize, quality)
		relative := pathnorm.RelativeOrBase(entry.Path, collected.InputRoot)
		base := filepath.Join(outputDir, relative)

		resolution := resolver.Resolve(base, entry.Path)
		item.destination = resolution.Destination
		item.status = resolution.Status
		item.reason = resolution.Reason

		if warning := toleranceWarning(item.estimatedSize, perFileTargetKB, tolerance); warning != "" {
			plan.warnings++
			if item.reason != "" {
				item.reason += "; " + warning
			} else {
				item.reason = warning
			}
		}
		plan.items = append(plan.items, item)
	}
	return plan, nil
}

// estimateSize models the output size from the source size and the
// effective parameters: src x (r/100)^2 x (q/100)^1.25.
func estimateSize(sourceSize int64, resizePercent float64, quality int) int64 {
	resizeRatio := clamp(resizePercent/100.0, 0.01, 1.0)
	qualityRatio := clamp(float64(quality)/100.0, 0.01, 1.0)
	return int64(math.Round(float64(sourceSize) * resizeRatio * resizeRatio * math.Pow(qualityRatio, 1.25)))
}

func toleranceWarning(estimatedSize, targetKB int64, tolerancePercent float64) string {
	if targetKB <= 0 {
		return ""
	}
	targetBytes := targetKB * 1024
	diff := estimatedSize - targetBytes
	if diff < 0 {
		diff = -diff
	}
	toleranceBytes := int64(float64(targetBytes) * tolerancePercent / 100.0)
	if diff > toleranceBytes {
		return fmt.Sprintf("estimate outside tolerance (estimated=%dB, target=%dB, tolerance=%.0f%%)",
			estimatedSize, targetBytes, tolerancePercent)
	}
	return ""
}

// compressOne decodes, resizes, and re-encodes a single JPEG, optionally
// carrying the source EXIF over with its orientation reset, and writes the
// result through the atomic replace discipline.
func compressOne(source, destination string, resizePercent float64, quality int, preserveExif bool) (int64, error) {
	original, err := os.ReadFile(source)
	if err != nil {
		return 0, err
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("decode JPEG: %w", err)
	}
	img = resizeByPercent(img, resizePercent)

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return 0, fmt.Errorf("encode JPEG: %w", err)
	}

	output := encoded.Bytes()
	if preserveExif {
		payloads := jpegseg.ExtractExifSegments(original)
		for _, payload := range payloads {
			// The decode already applied the orientation.
			exifmeta.ResetOrientation(payload)
		}
		output = jpegseg.InjectSegments(output, payloads)
	}

	if err := fsatomic.EnsureParent(destination); err != nil {
		return 0, err
	}
	if err := fsatomic.WriteReplace(destination, output); err != nil {
		return 0, err
	}
	return int64(len(output)), nil
}

func resizeByPercent(img image.Image, resizePercent float64) image.Image {
	ratio := clamp(resizePercent/100.0, 0.01, 1.0)
	if ratio >= 0.999 {
		return img
	}
	bounds := img.Bounds()
	width := int(math.Round(float64(bounds.Dx()) * ratio))
	height := int(math.Round(float64(bounds.Dy()) * ratio))
	return imaging.Resize(img, max(width, 1), max(height, 1), imaging.Lanczos)
}

func clampResize(v float64) float64 {
	return clamp(v, 1.0, 100.0)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
