// Package collect walks input paths and produces the deduplicated, stably
// ordered list of files an operation works on.
package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// RenameExtensions is the extension set accepted by the rename operation.
var RenameExtensions = NewExtensionSet(
	"jpg", "jpeg", "png", "webp", "gif", "tif", "tiff", "bmp", "heic", "heif",
	"dng", "cr2", "cr3", "nef", "arw", "raf",
	"mp4", "mov", "m4v", "avi", "mkv", "wmv", "mts", "m2ts", "mpg", "mpeg",
	"webm", "mxf",
)

// JpegExtensions is the extension set accepted by the JPEG-only operations
// (compress, exif offset, metadata strip).
var JpegExtensions = NewExtensionSet("jpg", "jpeg")

// ExtensionSet matches file extensions case-insensitively. A nil set
// accepts every extension.
type ExtensionSet map[string]bool

// NewExtensionSet builds a set from lowercase extensions without leading dot.
func NewExtensionSet(extensions ...string) ExtensionSet {
	set := make(ExtensionSet, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Matches reports whether the path's extension is in the set.
func (s ExtensionSet) Matches(path string) bool {
	if s == nil {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	return s[ext]
}

// Result is the output of a collection pass.
type Result struct {
	// Entries are the collected files, deduplicated, directories walked
	// depth-first with the entries of each directory sorted
	// case-insensitively by filename.
	Entries []types.FileEntry
	// InputRoot is the deepest common parent of the collected files, or ""
	// when the inputs share no root.
	InputRoot string
	// SkippedByExtension counts files rejected by the extension filter.
	SkippedByExtension int
	// Diagnostics lists files that could not be stat-ed; they are omitted
	// from Entries rather than failing the collection.
	Diagnostics []string
}

// Collector walks input paths with an extension filter.
type Collector struct {
	allowed ExtensionSet
}

// New returns a collector filtering by the given set (nil accepts all).
func New(allowed ExtensionSet) *Collector {
	return &Collector{allowed: allowed}
}

// Collect resolves each input path (file or directory) and gathers matching
// files. recursive controls whether directory walks descend past direct
// children. Symlinked directories are followed; cycles are broken by
// tracking visited canonical paths.
func (c *Collector) Collect(inputPaths []string, recursive bool) (*Result, error) {
	if len(inputPaths) == 0 {
		return nil, fmt.Errorf("no input paths given")
	}

	result := &Result{}
	seen := make(map[string]bool)
	visitedDirs := make(map[string]bool)

	for _, raw := range inputPaths {
		canonical, err := pathnorm.Canonicalize(raw)
		if err != nil {
			return nil, fmt.Errorf("input path not found: %s", raw)
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, fmt.Errorf("input path not found: %s", raw)
		}
		if info.IsDir() {
			c.collectDir(canonical, recursive, seen, visitedDirs, result)
			continue
		}
		c.addFile(canonical, info, seen, result)
	}

	paths := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		paths = append(paths, entry.Path)
	}
	result.InputRoot = pathnorm.CommonParent(paths)
	return result, nil
}

func (c *Collector) collectDir(dir string, recursive bool, seen, visitedDirs map[string]bool, result *Result) {
	key := pathnorm.Key(dir)
	if visitedDirs[key] {
		return
	}
	visitedDirs[key] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, dir+": "+err.Error())
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, path+": "+err.Error())
			continue
		}
		if info.IsDir() {
			if recursive {
				canonical, err := pathnorm.Canonicalize(path)
				if err != nil {
					result.Diagnostics = append(result.Diagnostics, path+": "+err.Error())
					continue
				}
				c.collectDir(canonical, true, seen, visitedDirs, result)
			}
			continue
		}
		c.addFile(path, info, seen, result)
	}
}

func (c *Collector) addFile(path string, info os.FileInfo, seen map[string]bool, result *Result) {
	if !c.allowed.Matches(path) {
		result.SkippedByExtension++
		return
	}
	key := pathnorm.Key(path)
	if seen[key] {
		return
	}
	seen[key] = true
	result.Entries = append(result.Entries, types.FileEntry{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	})
}
