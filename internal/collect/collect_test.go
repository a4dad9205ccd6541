package collect

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, names []string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollect_ExtensionFilterCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"Photo.JPG", "clip.mp4", "notes.txt"})

	c := New(NewExtensionSet("jpg"))
	result, err := c.Collect([]string{tmpDir}, false)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].Name != "Photo.JPG" {
		t.Errorf("expected Photo.JPG, got %s", result.Entries[0].Name)
	}
	if result.Entries[0].Extension != "jpg" {
		t.Errorf("expected lowercase extension, got %s", result.Entries[0].Extension)
	}
	if result.SkippedByExtension != 2 {
		t.Errorf("expected 2 skipped by extension, got %d", result.SkippedByExtension)
	}
}

func TestCollect_NonRecursiveSkipsGrandchildren(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"a.jpg", "sub/b.jpg", "sub/deep/c.jpg"})

	c := New(NewExtensionSet("jpg"))

	result, err := c.Collect([]string{tmpDir}, false)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Errorf("non-recursive should see direct children only, got %d entries", len(result.Entries))
	}

	result, err = c.Collect([]string{tmpDir}, true)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Errorf("recursive should see all files, got %d entries", len(result.Entries))
	}
}

func TestCollect_StableOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"b/1.jpg", "a/2.jpg", "a/1.jpg", "Z.jpg"})

	c := New(NewExtensionSet("jpg"))
	result, err := c.Collect([]string{tmpDir}, true)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var names []string
	for _, entry := range result.Entries {
		rel, _ := filepath.Rel(tmpDir, entry.Path)
		names = append(names, filepath.ToSlash(rel))
	}
	want := []string{"a/1.jpg", "a/2.jpg", "b/1.jpg", "Z.jpg"}
	if len(names) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestCollect_DeduplicatesInputs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"a.jpg"})
	file := filepath.Join(tmpDir, "a.jpg")

	c := New(NewExtensionSet("jpg"))
	result, err := c.Collect([]string{file, file, tmpDir}, false)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Errorf("expected deduplicated single entry, got %d", len(result.Entries))
	}
}

func TestCollect_MissingInputFails(t *testing.T) {
	c := New(nil)
	if _, err := c.Collect([]string{filepath.Join(t.TempDir(), "absent")}, false); err == nil {
		t.Error("expected error for missing input path")
	}
}

func TestCollect_InputRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"a/1.jpg", "b/2.jpg"})

	c := New(NewExtensionSet("jpg"))
	result, err := c.Collect([]string{tmpDir}, true)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(tmpDir)
	if result.InputRoot != resolved {
		t.Errorf("expected input root %s, got %s", resolved, result.InputRoot)
	}
}
