package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

func TestResolve_NoConflict(t *testing.T) {
	tmpDir := t.TempDir()
	resolver := NewResolver(types.ConflictSkip, fsatomic.NewReservations())

	res := resolver.Resolve(filepath.Join(tmpDir, "photo.jpg"), "")
	if res.Status != types.StatusReady {
		t.Errorf("expected ready, got %s (%s)", res.Status, res.Reason)
	}
}

func TestResolve_SkipPolicy(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "photo.jpg")
	os.WriteFile(existing, []byte("x"), 0644)

	resolver := NewResolver(types.ConflictSkip, fsatomic.NewReservations())
	res := resolver.Resolve(existing, "")
	if res.Status != types.StatusSkipped {
		t.Error("skip policy should skip on collision")
	}
	if res.Reason != "collision" {
		t.Errorf("expected reason collision, got %q", res.Reason)
	}
}

func TestResolve_SequencePolicy(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "photo.jpg")
	os.WriteFile(existing, []byte("x"), 0644)

	resolver := NewResolver(types.ConflictSequence, fsatomic.NewReservations())
	res := resolver.Resolve(existing, "")
	if res.Status != types.StatusReady {
		t.Fatal("sequence policy should stay ready")
	}
	want := filepath.Join(tmpDir, "photo_no1.jpg")
	if res.Destination != want {
		t.Errorf("expected %s, got %s", want, res.Destination)
	}
}

func TestResolve_OverwritePolicy(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "photo.jpg")
	os.WriteFile(existing, []byte("x"), 0644)

	resolver := NewResolver(types.ConflictOverwrite, fsatomic.NewReservations())
	res := resolver.Resolve(existing, "")
	if res.Status != types.StatusReady || res.Destination != existing {
		t.Errorf("overwrite should keep the destination ready, got %+v", res)
	}
	if res.Reason == "" {
		t.Error("overwrite over an existing file should carry a reason")
	}
}

func TestResolve_DefaultsToSequence(t *testing.T) {
	tmpDir := t.TempDir()
	resolver := NewResolver("", fsatomic.NewReservations())

	first := resolver.Resolve(filepath.Join(tmpDir, "a.jpg"), "")
	second := resolver.Resolve(filepath.Join(tmpDir, "a.jpg"), "")
	if second.Destination != filepath.Join(tmpDir, "a_no1.jpg") {
		t.Errorf("expected sequence default, got %s after %s", second.Destination, first.Destination)
	}
}

func TestLastWriterWins(t *testing.T) {
	destinations := []string{"/out/x.jpg", "/out/y.jpg", "/out/X.JPG"}
	statuses := []types.PreviewStatus{types.StatusReady, types.StatusReady, types.StatusReady}

	skipped := LastWriterWins(destinations, statuses)
	if len(skipped) != 1 || skipped[0] != 0 {
		t.Errorf("expected only the first x.jpg demoted, got %v", skipped)
	}
}
