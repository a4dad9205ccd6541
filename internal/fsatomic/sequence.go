package fsatomic

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
)

// invalidNameChars are rejected in destination stems at plan time.
const invalidNameChars = `<>:"/\|?*` + "\x00"

// Reservations is the in-flight name-reservation set shared by a single
// plan/run. Keys are normalized destination paths.
type Reservations struct {
	mu   sync.Mutex
	keys map[string]bool
}

// NewReservations returns an empty reservation set.
func NewReservations() *Reservations {
	return &Reservations{keys: make(map[string]bool)}
}

// Reserve records the path; reports false when it was already reserved.
func (r *Reservations) Reserve(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pathnorm.Key(path)
	if r.keys[key] {
		return false
	}
	r.keys[key] = true
	return true
}

// Reserved reports whether the path is already taken by an earlier item.
func (r *Reservations) Reserved(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[pathnorm.Key(path)]
}

// ValidateStem rejects empty stems and reserved characters as plan-time
// errors before the allocator runs.
func ValidateStem(stem string) error {
	if strings.TrimSpace(stem) == "" {
		return fmt.Errorf("empty file name")
	}
	if strings.ContainsAny(stem, invalidNameChars) {
		return fmt.Errorf("name contains reserved characters")
	}
	return nil
}

// ContainsInvalidChars reports whether a rendered file name still carries
// characters the target file systems reject.
func ContainsInvalidChars(name string) bool {
	return strings.ContainsAny(name, invalidNameChars)
}

// AllocateSequenced returns `stem_noN.ext` with the smallest N >= 1 that
// neither exists on disk nor is reserved by an earlier item in the same
// plan. The base destination itself is tried first. source is exempt from
// the on-disk check so an in-place rename to the same path is not treated
// as a collision. The chosen path is reserved before returning.
func AllocateSequenced(base, source string, reservations *Reservations) string {
	candidate := base
	for n := 1; ; n++ {
		onDisk := pathnorm.Exists(candidate) && pathnorm.Key(candidate) != pathnorm.Key(source)
		if !onDisk && !reservations.Reserved(candidate) {
			reservations.Reserve(candidate)
			return candidate
		}
		candidate = sequencedName(base, n)
	}
}

// AllocateSequencedDir disambiguates an auto-created output directory with
// the same `_noN` suffix scheme.
func AllocateSequencedDir(base string) string {
	if !pathnorm.Exists(base) {
		return base
	}
	parent := filepath.Dir(base)
	name := filepath.Base(base)
	for n := 1; ; n++ {
		candidate := filepath.Join(parent, fmt.Sprintf("%s_no%d", name, n))
		if !pathnorm.Exists(candidate) {
			return candidate
		}
	}
}

func sequencedName(base string, n int) string {
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(filepath.Base(base), ext)
	return filepath.Join(dir, fmt.Sprintf("%s_no%d%s", stem, n, ext))
}
