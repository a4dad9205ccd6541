package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func writeTestFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func TestRename_InPlaceWithCaptureDate(t *testing.T) {
	tmpDir := t.TempDir()
	mtime := time.Date(2023, 4, 5, 12, 34, 56, 0, time.Local)
	source := filepath.Join(tmpDir, "IMG.JPG")
	writeTestFile(t, source, mtime)

	engine := New(WithWorkers(1))
	req := &types.RenameRequest{
		InputPaths:     []string{source},
		Template:       "{capture_date:YYYY-MM-DD}_{seq:2}",
		Source:         types.SourceCaptureThenModified, // no EXIF: falls back to mtime
		ConflictPolicy: types.ConflictSequence,
	}

	resp, err := engine.ExecuteRename(req)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded, "details: %+v", resp.Details)

	// The original extension keeps its case.
	dest := filepath.Join(tmpDir, "2023-04-05_01.JPG")
	require.Equal(t, "2023-04-05_01.JPG", filepath.Base(resp.Details[0].DestinationPath))
	require.FileExists(t, dest)
	require.NoFileExists(t, source, "in-place rename removes the source")
}

func TestRename_PreviewDoesNotMutate(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "a.jpg")
	writeTestFile(t, source, time.Time{})

	engine := New()
	resp, err := engine.PreviewRename(&types.RenameRequest{
		InputPaths: []string{source},
		Template:   "{orig}_renamed",
		Source:     types.SourceModifiedOnly,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Ready)
	require.FileExists(t, source, "preview must not move anything")

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRename_SequenceConflicts(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeTestFile(t, filepath.Join(tmpDir, name), time.Time{})
	}

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteRename(&types.RenameRequest{
		InputPaths:     []string{tmpDir},
		Template:       "same",
		Source:         types.SourceModifiedOnly,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Succeeded)

	require.FileExists(t, filepath.Join(tmpDir, "same.jpg"))
	require.FileExists(t, filepath.Join(tmpDir, "same_no1.jpg"))
	require.FileExists(t, filepath.Join(tmpDir, "same_no2.jpg"))
}

func TestRename_SkipPolicyOnExistingDestination(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "a.jpg")
	writeTestFile(t, source, time.Time{})
	writeTestFile(t, filepath.Join(tmpDir, "taken.jpg"), time.Time{})

	engine := New()
	resp, err := engine.PreviewRename(&types.RenameRequest{
		InputPaths:     []string{source},
		Template:       "taken",
		Source:         types.SourceModifiedOnly,
		ConflictPolicy: types.ConflictSkip,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, "collision", resp.Items[0].Reason)
}

func TestRename_OutputDirPreservesRelativeTree(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "in", "sub", "x.jpg"), time.Time{})
	writeTestFile(t, filepath.Join(tmpDir, "in", "y.jpg"), time.Time{})
	outDir := filepath.Join(tmpDir, "out")

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteRename(&types.RenameRequest{
		InputPaths:        []string{filepath.Join(tmpDir, "in")},
		IncludeSubfolders: true,
		Template:          "{orig}_copy",
		Source:            types.SourceModifiedOnly,
		OutputDir:         outDir,
		ConflictPolicy:    types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Succeeded, "details: %+v", resp.Details)
	require.FileExists(t, filepath.Join(outDir, "sub", "x_copy.jpg"))
	require.FileExists(t, filepath.Join(outDir, "y_copy.jpg"))
}

func TestRename_InvalidRequests(t *testing.T) {
	engine := New()

	_, err := engine.PreviewRename(&types.RenameRequest{
		InputPaths: []string{t.TempDir()},
		Template:   "   ",
	})
	require.Error(t, err, "empty template")

	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "doc.txt"), time.Time{})
	_, err = engine.PreviewRename(&types.RenameRequest{
		InputPaths: []string{tmpDir},
		Template:   "{orig}",
	})
	require.Error(t, err, "no supported files")
}

func TestRename_InvalidRenderedNameSkips(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "a.jpg")
	writeTestFile(t, source, time.Time{})

	engine := New()
	resp, err := engine.PreviewRename(&types.RenameRequest{
		InputPaths: []string{source},
		Template:   "bad|name",
		Source:     types.SourceModifiedOnly,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, "invalid name", resp.Items[0].Reason)
}

func TestRename_ChainedMovesRunSequentially(t *testing.T) {
	// 2.jpg -> 1.jpg while 3.jpg -> 2.jpg: the destination of the second
	// item is the first item's source, which forces sequential execution
	// in plan order so no source is destroyed before it is read.
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "2.jpg"), time.Time{})
	writeTestFile(t, filepath.Join(tmpDir, "3.jpg"), time.Time{})

	engine := New()
	resp, err := engine.ExecuteRename(&types.RenameRequest{
		InputPaths:     []string{tmpDir},
		Template:       "{seq:1}",
		Source:         types.SourceModifiedOnly,
		ConflictPolicy: types.ConflictOverwrite,
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Succeeded, "details: %+v", resp.Details)
	require.FileExists(t, filepath.Join(tmpDir, "1.jpg"))
	require.FileExists(t, filepath.Join(tmpDir, "2.jpg"))
	require.NoFileExists(t, filepath.Join(tmpDir, "3.jpg"))
}
