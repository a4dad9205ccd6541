// Package pathnorm canonicalizes user-supplied paths and derives relative
// paths between them. All destination comparisons in the engine go through
// Key so that collision detection matches the case-insensitive semantics of
// the file systems creators typically work on.
package pathnorm

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoCommonRoot is returned by Relativize when base and target do not
// share a root.
var ErrNoCommonRoot = errors.New("paths share no common root")

// Normalize converts a user-supplied path to the host's absolute, cleaned
// form: `.` and `..` resolved, duplicate separators collapsed, no trailing
// separator except at a volume root. On Windows the drive letter is
// uppercased.
func Normalize(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	if runtime.GOOS == "windows" && len(abs) >= 2 && abs[1] == ':' {
		abs = strings.ToUpper(abs[:1]) + abs[1:]
	}
	return abs, nil
}

// Canonicalize resolves symlinks on top of Normalize. The path must exist.
func Canonicalize(path string) (string, error) {
	norm, err := Normalize(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(norm)
	if err != nil {
		return "", err
	}
	return Normalize(resolved)
}

// Key returns the comparison key for a destination path. Comparisons are
// case-insensitive to match Windows volume semantics, which is the stricter
// of the platforms the engine targets.
func Key(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// Relativize returns the path components from base to target. It fails when
// target is not under base and no `..`-free relation exists.
func Relativize(base, target string) ([]string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return nil, ErrNoCommonRoot
	}
	if rel == "." {
		return nil, nil
	}
	if strings.HasPrefix(rel, "..") {
		return nil, ErrNoCommonRoot
	}
	return strings.Split(rel, string(filepath.Separator)), nil
}

// RelativeOrBase returns target's path relative to root when root is set and
// contains target; otherwise it falls back to target's base name. Used to
// reproduce the source tree under an output or retreat directory.
func RelativeOrBase(target string, root string) string {
	if root != "" {
		if parts, err := Relativize(root, target); err == nil && len(parts) > 0 {
			return filepath.Join(parts...)
		}
	}
	return filepath.Base(target)
}

// CommonParent returns the deepest directory containing every given file,
// or "" when the files share no root.
func CommonParent(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	current := filepath.Dir(paths[0])
	for _, path := range paths[1:] {
		parent := filepath.Dir(path)
		for !isPrefixDir(current, parent) {
			next := filepath.Dir(current)
			if next == current {
				return ""
			}
			current = next
		}
	}
	return current
}

func isPrefixDir(dir, sub string) bool {
	if Key(dir) == Key(sub) {
		return true
	}
	rel, err := filepath.Rel(dir, sub)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Exists reports whether the path exists (any file type).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
