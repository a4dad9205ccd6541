package ops

import (
	"bytes"
	"image"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

const (
	solverIterations = 5
	solverMaxSamples = 5
	solverMinResize  = 10.0
)

// solveTargetSize picks effective (resizePercent, quality) so the sampled
// estimate for the whole input lands at or under the target. Resize is
// lowered first by binary search; quality is scaled down only when resize
// bottoms out. Falls back to resize 100 and the seed quality clamped to
// [20,95] when no sample decodes.
func (e *Engine) solveTargetSize(paths []string, totalSourceBytes, targetBytes int64, qualitySeed int) (float64, int) {
	if totalSourceBytes == 0 || targetBytes <= 1 {
		return 100.0, clampQuality(qualitySeed)
	}
	quality := qualitySeed
	if quality < 20 {
		quality = 20
	}
	if quality > 95 {
		quality = 95
	}

	samples := e.decodeSamples(samplePaths(paths, solverMaxSamples))
	if len(samples) == 0 {
		return 100.0, quality
	}

	target := float64(targetBytes)
	low, high := solverMinResize, 100.0
	for i := 0; i < solverIterations; i++ {
		if executor.CancelRequested() {
			break
		}
		mid := (low + high) / 2.0
		ratio := sampleRatioFromDecoded(samples, mid, quality)
		if float64(totalSourceBytes)*ratio <= target {
			low = mid
		} else {
			high = mid
		}
	}

	ratio := sampleRatioFromDecoded(samples, low, quality)
	estimated := float64(totalSourceBytes) * ratio
	finalQuality := quality
	if estimated > target && low <= solverMinResize+1.0 && ratio > 0 {
		scale := (target / float64(totalSourceBytes)) / ratio
		finalQuality = int(clamp(math.Round(float64(quality)*scale), 10, 95))
	}
	return math.Max(math.Round(low), solverMinResize), finalQuality
}

type decodedSample struct {
	sourceSize int64
	img        image.Image
}

// decodeSamples decodes the sample files once, in parallel, reporting one
// estimate progress event per file.
func (e *Engine) decodeSamples(paths []string) []decodedSample {
	var mu sync.Mutex
	var samples []decodedSample
	done := 0

	var g errgroup.Group
	g.SetLimit(executor.Workers())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			var sample *decodedSample
			if !executor.CancelRequested() {
				if info, err := os.Stat(path); err == nil {
					if img, err := imaging.Open(path); err == nil {
						sample = &decodedSample{sourceSize: info.Size(), img: img}
					}
				}
			}
			mu.Lock()
			done++
			if sample != nil {
				samples = append(samples, *sample)
			}
			current, total := done, len(paths)
			mu.Unlock()
			if e.estimate != nil {
				e.estimate(types.EstimateProgressEvent{Current: current, Total: total})
			}
			return nil
		})
	}
	g.Wait()
	return samples
}

// sampleRatio decodes the samples and measures the output/input byte ratio
// at the given parameters.
func (e *Engine) sampleRatio(paths []string, resizePercent float64, quality int) float64 {
	samples := e.decodeSamples(paths)
	if len(samples) == 0 {
		return 1.0
	}
	return sampleRatioFromDecoded(samples, resizePercent, quality)
}

func sampleRatioFromDecoded(samples []decodedSample, resizePercent float64, quality int) float64 {
	var srcTotal, outTotal int64
	for _, sample := range samples {
		resized := resizeByPercent(sample.img, resizePercent)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			continue
		}
		srcTotal += sample.sourceSize
		outTotal += int64(buf.Len())
	}
	if srcTotal == 0 {
		return 1.0
	}
	return float64(outTotal) / float64(srcTotal)
}

// samplePaths picks up to limit paths evenly spaced across the input.
func samplePaths(paths []string, limit int) []string {
	if len(paths) <= limit {
		return paths
	}
	step := len(paths) / limit
	if step < 1 {
		step = 1
	}
	sampled := make([]string, 0, limit)
	for i := 0; i < len(paths) && len(sampled) < limit; i += step {
		sampled = append(sampled, paths[i])
	}
	return sampled
}
