package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func TestFlatten_SequenceCollisions(t *testing.T) {
	// root/{a/1.jpg, a/2.jpg, b/1.jpg} with sequence policy yields
	// out/1.jpg, out/2.jpg, out/1_no1.jpg.
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "root")
	for _, name := range []string{"a/1.jpg", "a/2.jpg", "b/1.jpg"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	}
	outDir := filepath.Join(tmpDir, "out")

	engine := New(WithWorkers(1))
	req := &types.FlattenRequest{
		InputDir:       root,
		OutputDir:      outDir,
		ConflictPolicy: types.ConflictSequence,
	}

	preview, err := engine.PreviewFlatten(req)
	require.NoError(t, err)
	require.Equal(t, 3, preview.Ready)
	require.Equal(t, 1, preview.Collisions)

	var destinations []string
	for _, item := range preview.Items {
		destinations = append(destinations, filepath.Base(item.DestinationPath))
	}
	require.Equal(t, []string{"1.jpg", "2.jpg", "1_no1.jpg"}, destinations)

	resp, err := engine.ExecuteFlatten(req)
	require.NoError(t, err)
	require.Equal(t, 3, resp.Succeeded)

	// Sources are copied, not moved.
	require.FileExists(t, filepath.Join(root, "a", "1.jpg"))
	require.FileExists(t, filepath.Join(outDir, "1.jpg"))
	require.FileExists(t, filepath.Join(outDir, "1_no1.jpg"))

	data, err := os.ReadFile(filepath.Join(outDir, "1_no1.jpg"))
	require.NoError(t, err)
	require.Equal(t, "b/1.jpg", string(data), "plan order assigns the suffix to the later directory")
}

func TestFlatten_NoResidualTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "root")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.jpg"), []byte("x"), 0644))
	outDir := filepath.Join(tmpDir, "out")

	engine := New(WithWorkers(1))
	_, err := engine.ExecuteFlatten(&types.FlattenRequest{
		InputDir:       root,
		OutputDir:      outDir,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotContains(t, entry.Name(), ".tmp.", "no temp files may survive a run")
	}
}

func TestFlatten_DefaultOutputDirName(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "shoot")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.jpg"), []byte("x"), 0644))

	engine := New()
	preview, err := engine.PreviewFlatten(&types.FlattenRequest{
		InputDir:       root,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	base := filepath.Base(preview.OutputDir)
	require.True(t, strings.HasPrefix(base, "shoot_flattened_"), "got %s", base)
}

func TestFlatten_RejectsOutputInsideInput(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "root")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.jpg"), []byte("x"), 0644))

	engine := New()

	_, err := engine.PreviewFlatten(&types.FlattenRequest{
		InputDir:       root,
		OutputDir:      root,
		ConflictPolicy: types.ConflictSequence,
	})
	require.Error(t, err, "output == input")

	_, err = engine.PreviewFlatten(&types.FlattenRequest{
		InputDir:       root,
		OutputDir:      filepath.Join(root, "nested"),
		ConflictPolicy: types.ConflictSequence,
	})
	require.Error(t, err, "output inside input")
}

func TestFlatten_RequiresDirectoryInput(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "f.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	engine := New()
	_, err := engine.PreviewFlatten(&types.FlattenRequest{
		InputDir:       file,
		ConflictPolicy: types.ConflictSequence,
	})
	require.Error(t, err)
}
