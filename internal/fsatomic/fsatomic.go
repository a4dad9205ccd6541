// Package fsatomic implements the engine's write discipline: every
// destination write goes through a temp file in the destination directory,
// is fsynced, and then atomically replaces the destination. On failure the
// temp file is removed and the destination is untouched.
package fsatomic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

var tempCounter atomic.Uint64

// tempPathFor derives the temp file name next to the destination so the
// final replace stays on one volume.
func tempPathFor(destination string) string {
	n := tempCounter.Add(1)
	return fmt.Sprintf("%s.tmp.%d.%d", destination, os.Getpid(), n)
}

// WriteReplace writes bytes to destination atomically.
func WriteReplace(destination string, data []byte) error {
	temp := tempPathFor(destination)
	if err := writeSynced(temp, data); err != nil {
		os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(temp, destination); err != nil {
		os.Remove(temp)
		return fmt.Errorf("replace destination: %w", err)
	}
	return nil
}

// CopyReplace copies source's bytes to destination atomically, preserving
// the source modification time.
func CopyReplace(source, destination string) error {
	temp := tempPathFor(destination)
	if err := copySynced(source, temp); err != nil {
		os.Remove(temp)
		return fmt.Errorf("copy to temp file: %w", err)
	}
	if info, err := os.Stat(source); err == nil {
		os.Chtimes(temp, info.ModTime(), info.ModTime())
	}
	if err := os.Rename(temp, destination); err != nil {
		os.Remove(temp)
		return fmt.Errorf("replace destination: %w", err)
	}
	return nil
}

// MoveReplace moves source to destination. Same-volume moves use a plain
// rename when the destination is free; otherwise, and across volumes, it
// falls back to copy-then-delete with the temp-and-replace discipline on the
// destination volume. Returns a note when a fallback was taken.
func MoveReplace(source, destination string) (string, error) {
	if source == destination {
		return "unchanged", nil
	}

	if _, err := os.Lstat(destination); os.IsNotExist(err) {
		if err := os.Rename(source, destination); err == nil {
			return "", nil
		}
		// Cross-volume or locked destination: copy, then remove the source.
		if err := CopyReplace(source, destination); err != nil {
			return "", err
		}
		if err := os.Remove(source); err != nil {
			return "", fmt.Errorf("moved by copy but removing source failed: %w", err)
		}
		return "moved by copy and replace", nil
	}

	if err := CopyReplace(source, destination); err != nil {
		return "", err
	}
	if err := os.Remove(source); err != nil {
		return "", fmt.Errorf("replaced destination but removing source failed: %w", err)
	}
	return "moved by copy and replace", nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copySynced(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// EnsureParent creates the destination's parent directory.
func EnsureParent(destination string) error {
	return os.MkdirAll(filepath.Dir(destination), 0755)
}
