package ops

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// writeTestJPEG encodes a gradient image so quality changes move the
// output size.
func writeTestJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(img, path, imaging.JPEGQuality(95)))
}

func TestEstimateSizeModel(t *testing.T) {
	// size = src x (r/100)^2 x (q/100)^1.25
	require.Equal(t, int64(1000), estimateSize(1000, 100, 100))
	require.Equal(t, int64(250), estimateSize(1000, 50, 100))
	got := estimateSize(1_000_000, 50, 80)
	require.InDelta(t, 250_000*0.7565, float64(got), 1000)
}

func TestSamplePaths(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	sampled := samplePaths(paths, 5)
	require.Len(t, sampled, 5)
	require.Equal(t, "a", sampled[0])

	short := samplePaths([]string{"x"}, 5)
	require.Equal(t, []string{"x"}, short)
}

func TestCompress_ExecuteResizes(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "in", "photo.jpg")
	writeTestJPEG(t, source, 120, 80)
	outDir := filepath.Join(tmpDir, "out")

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteCompress(&types.CompressRequest{
		InputPaths:     []string{filepath.Join(tmpDir, "in")},
		ResizePercent:  50,
		Quality:        60,
		OutputDir:      outDir,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded, "details: %+v", resp.Details)
	require.FileExists(t, source, "compress never removes the source")

	dest := filepath.Join(outDir, "photo.jpg")
	require.FileExists(t, dest)
	img, err := imaging.Open(dest)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 60, 40), img.Bounds())
	require.Greater(t, resp.Details[0].OutputSize, int64(0))
}

func TestCompress_NonJpegSkippedAsUnsupported(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestJPEG(t, filepath.Join(tmpDir, "photo.jpg"), 32, 32)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644))

	engine := New()
	resp, err := engine.PreviewCompress(&types.CompressRequest{
		InputPaths:     []string{tmpDir},
		ResizePercent:  100,
		Quality:        80,
		OutputDir:      filepath.Join(tmpDir, "out"),
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Ready)
	require.Equal(t, 1, resp.Skipped)
	for _, item := range resp.Items {
		if filepath.Ext(item.SourcePath) == ".txt" {
			require.Equal(t, "unsupported", item.Reason)
		}
	}
}

func TestCompress_TargetSizeSolvesParameters(t *testing.T) {
	tmpDir := t.TempDir()
	inDir := filepath.Join(tmpDir, "in")
	for i := 0; i < 3; i++ {
		writeTestJPEG(t, filepath.Join(inDir, string(rune('a'+i))+".jpg"), 400, 300)
	}

	var total int64
	entries, err := os.ReadDir(inDir)
	require.NoError(t, err)
	for _, entry := range entries {
		info, err := entry.Info()
		require.NoError(t, err)
		total += info.Size()
	}

	engine := New(WithWorkers(1))
	resp, err := engine.PreviewCompress(&types.CompressRequest{
		InputPaths:     []string{inDir},
		ResizePercent:  100,
		Quality:        85,
		TargetSizeKB:   total / 1024 / 4, // aim at a quarter of the input
		OutputDir:      filepath.Join(tmpDir, "out"),
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Less(t, resp.EffectiveResizePercent, 100.0, "the solver must lower resize toward the target")
	require.GreaterOrEqual(t, resp.EffectiveResizePercent, 10.0)
	require.GreaterOrEqual(t, resp.EffectiveQuality, 10)
}

func TestCompress_CollectInfoAndEstimate(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestJPEG(t, filepath.Join(tmpDir, "a.jpg"), 64, 64)
	writeTestJPEG(t, filepath.Join(tmpDir, "b.jpg"), 64, 64)

	engine := New()
	info, err := engine.CollectInfoCompress([]string{tmpDir}, false)
	require.NoError(t, err)
	require.Equal(t, 2, info.FileCount)
	require.Greater(t, info.TotalSize, int64(0))

	var events int
	engine = New(WithEstimateProgress(func(types.EstimateProgressEvent) { events++ }))
	estimate, err := engine.EstimateCompress([]string{tmpDir}, false, 50, 50)
	require.NoError(t, err)
	require.Equal(t, 2, estimate.FileCount)
	require.Greater(t, estimate.EstimatedTotalSize, int64(0))
	require.Less(t, estimate.EstimatedTotalSize, estimate.TotalSourceSize)
	require.Greater(t, events, 0, "estimate reports per-sample progress")
}

func TestCompress_DefaultOutputDirName(t *testing.T) {
	tmpDir := t.TempDir()
	inDir := filepath.Join(tmpDir, "shoot")
	writeTestJPEG(t, filepath.Join(inDir, "a.jpg"), 32, 32)

	engine := New()
	resp, err := engine.PreviewCompress(&types.CompressRequest{
		InputPaths:     []string{inDir},
		ResizePercent:  100,
		Quality:        80,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Contains(t, filepath.Base(resp.OutputDir), "shoot_compressed_")
}
