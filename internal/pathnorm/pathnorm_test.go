package pathnorm

import (
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tmpDir := t.TempDir()

	got, err := Normalize(filepath.Join(tmpDir, "a", "..", "b", ".", "c"))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := filepath.Join(tmpDir, "b", "c")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if _, err := Normalize("   "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestKey_CaseInsensitive(t *testing.T) {
	if Key("/Photos/IMG.JPG") != Key("/photos/img.jpg") {
		t.Error("keys should compare case-insensitively")
	}
}

func TestRelativize(t *testing.T) {
	base := filepath.Join("/", "data", "in")
	target := filepath.Join(base, "sub", "x.jpg")

	parts, err := Relativize(base, target)
	if err != nil {
		t.Fatalf("Relativize failed: %v", err)
	}
	if len(parts) != 2 || parts[0] != "sub" || parts[1] != "x.jpg" {
		t.Errorf("unexpected components: %v", parts)
	}

	if _, err := Relativize(filepath.Join("/", "data", "in"), filepath.Join("/", "other", "x")); err == nil {
		t.Error("expected ErrNoCommonRoot for unrelated paths")
	}
}

func TestCommonParent(t *testing.T) {
	root := filepath.Join("/", "data")
	paths := []string{
		filepath.Join(root, "a", "1.jpg"),
		filepath.Join(root, "a", "2.jpg"),
		filepath.Join(root, "b", "1.jpg"),
	}
	if got := CommonParent(paths); got != root {
		t.Errorf("expected %s, got %s", root, got)
	}

	single := []string{filepath.Join(root, "a", "1.jpg")}
	if got := CommonParent(single); got != filepath.Join(root, "a") {
		t.Errorf("expected parent dir, got %s", got)
	}

	if got := CommonParent(nil); got != "" {
		t.Errorf("expected empty for no paths, got %s", got)
	}
}
