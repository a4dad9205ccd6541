package fsatomic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp.") {
			t.Errorf("residual temp file: %s", entry.Name())
		}
	}
}

func TestWriteReplace(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "out.bin")

	if err := WriteReplace(dest, []byte("hello")); err != nil {
		t.Fatalf("WriteReplace failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "hello" {
		t.Errorf("unexpected content: %q err=%v", data, err)
	}

	// Overwriting an existing destination replaces it atomically.
	if err := WriteReplace(dest, []byte("second")); err != nil {
		t.Fatalf("WriteReplace over existing failed: %v", err)
	}
	data, _ = os.ReadFile(dest)
	if string(data) != "second" {
		t.Errorf("expected replacement, got %q", data)
	}
	assertNoTempFiles(t, tmpDir)
}

func TestCopyReplace_PreservesSource(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "src.bin")
	dest := filepath.Join(tmpDir, "dst.bin")
	os.WriteFile(source, []byte("payload"), 0644)

	if err := CopyReplace(source, dest); err != nil {
		t.Fatalf("CopyReplace failed: %v", err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Error("source should still exist after copy")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "payload" {
		t.Errorf("unexpected destination content: %q", data)
	}
	assertNoTempFiles(t, tmpDir)
}

func TestCopyReplace_MissingSourceLeavesDestination(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "dst.bin")
	os.WriteFile(dest, []byte("original"), 0644)

	err := CopyReplace(filepath.Join(tmpDir, "absent"), dest)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "original" {
		t.Errorf("destination should be untouched on failure, got %q", data)
	}
	assertNoTempFiles(t, tmpDir)
}

func TestMoveReplace(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "src.bin")
	dest := filepath.Join(tmpDir, "dst.bin")
	os.WriteFile(source, []byte("move-me"), 0644)

	note, err := MoveReplace(source, dest)
	if err != nil {
		t.Fatalf("MoveReplace failed: %v", err)
	}
	if note != "" {
		t.Errorf("plain rename should carry no note, got %q", note)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Error("source should be gone after move")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "move-me" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestMoveReplace_OverExisting(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "src.bin")
	dest := filepath.Join(tmpDir, "dst.bin")
	os.WriteFile(source, []byte("new"), 0644)
	os.WriteFile(dest, []byte("old"), 0644)

	if _, err := MoveReplace(source, dest); err != nil {
		t.Fatalf("MoveReplace failed: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "new" {
		t.Errorf("expected replacement content, got %q", data)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Error("source should be removed")
	}
	assertNoTempFiles(t, tmpDir)
}

func TestMoveReplace_SamePath(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "same.bin")
	os.WriteFile(source, []byte("x"), 0644)

	note, err := MoveReplace(source, source)
	if err != nil {
		t.Fatalf("MoveReplace failed: %v", err)
	}
	if note != "unchanged" {
		t.Errorf("expected unchanged note, got %q", note)
	}
}
