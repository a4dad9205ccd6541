package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

type fakeTrasher struct {
	calls []string
	fail  bool
}

func (f *fakeTrasher) Trash(path string) error {
	f.calls = append(f.calls, path)
	if f.fail {
		return os.ErrPermission
	}
	return os.Remove(path)
}

func TestDelete_Direct(t *testing.T) {
	tmpDir := t.TempDir()
	keep := filepath.Join(tmpDir, "keep.jpg")
	target := filepath.Join(tmpDir, "temp.tmp")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteDelete(&types.DeleteRequest{
		InputPaths: []string{tmpDir},
		Extensions: []string{"tmp"},
		Mode:       types.DeleteDirect,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded)
	require.NoFileExists(t, target)
	require.FileExists(t, keep, "only the extension set is deleted")
}

func TestDelete_TrashUsesCollaborator(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "junk.bak")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	trasher := &fakeTrasher{}
	engine := New(WithWorkers(1), WithTrasher(trasher))
	resp, err := engine.ExecuteDelete(&types.DeleteRequest{
		InputPaths: []string{tmpDir},
		Extensions: []string{"bak"},
		Mode:       types.DeleteTrash,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded)
	require.Len(t, trasher.calls, 1)
}

func TestDelete_TrashFailureIsPerItem(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.bak"), []byte("x"), 0644))

	engine := New(WithWorkers(1), WithTrasher(&fakeTrasher{fail: true}))
	resp, err := engine.ExecuteDelete(&types.DeleteRequest{
		InputPaths: []string{tmpDir},
		Extensions: []string{"bak"},
		Mode:       types.DeleteTrash,
	})
	require.NoError(t, err, "per-item failures do not abort the run")
	require.Equal(t, 1, resp.Failed)
	require.NotEmpty(t, resp.Details[0].Reason)
}

func TestDelete_RetreatMovesToDir(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "old.tmp")
	require.NoError(t, os.WriteFile(target, []byte("payload"), 0644))
	retreatDir := filepath.Join(tmpDir, "retreat")

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteDelete(&types.DeleteRequest{
		InputPaths:     []string{tmpDir},
		Extensions:     []string{"tmp"},
		Mode:           types.DeleteRetreat,
		RetreatDir:     retreatDir,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded)
	require.NoFileExists(t, target)

	moved, err := os.ReadFile(filepath.Join(retreatDir, "old.tmp"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(moved))
}

func TestDelete_RetreatConflictSequence(t *testing.T) {
	tmpDir := t.TempDir()
	retreatDir := filepath.Join(tmpDir, "retreat")
	require.NoError(t, os.MkdirAll(retreatDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(retreatDir, "dup.tmp"), []byte("existing"), 0644))

	inDir := filepath.Join(tmpDir, "in")
	require.NoError(t, os.MkdirAll(inDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "dup.tmp"), []byte("incoming"), 0644))

	engine := New(WithWorkers(1))
	resp, err := engine.ExecuteDelete(&types.DeleteRequest{
		InputPaths:     []string{inDir},
		Extensions:     []string{"tmp"},
		Mode:           types.DeleteRetreat,
		RetreatDir:     retreatDir,
		ConflictPolicy: types.ConflictSequence,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Succeeded)
	require.FileExists(t, filepath.Join(retreatDir, "dup_no1.tmp"))
}

func TestDelete_RequiresExtensions(t *testing.T) {
	engine := New()
	_, err := engine.PreviewDelete(&types.DeleteRequest{
		InputPaths: []string{t.TempDir()},
		Mode:       types.DeleteDirect,
	})
	require.Error(t, err)

	_, err = engine.PreviewDelete(&types.DeleteRequest{
		InputPaths: []string{t.TempDir()},
		Extensions: []string{"a.b"},
		Mode:       types.DeleteDirect,
	})
	require.Error(t, err, "dots inside an extension are invalid")
}

func TestDelete_RetreatRequiresDir(t *testing.T) {
	engine := New()
	_, err := engine.PreviewDelete(&types.DeleteRequest{
		InputPaths: []string{t.TempDir()},
		Extensions: []string{"tmp"},
		Mode:       types.DeleteRetreat,
	})
	require.Error(t, err)
}
