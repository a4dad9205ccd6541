// Package settings loads and saves the persisted settings document and
// implements export/import with merge-conflict detection. Saves are
// serialized by an internal mutex and deduped by a short debounce so rapid
// UI edits do not rewrite the file on every keystroke.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

const (
	fileName      = "settings.json"
	saveDebounce  = 400 * time.Millisecond
	appConfigName = "creators-file-manager"
)

// Store manages the on-disk settings file.
type Store struct {
	mu      sync.Mutex
	path    string
	pending *time.Timer
	queued  *types.AppSettings
}

// NewStore places the settings file in the OS app-config directory.
func NewStore() (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config directory: %w", err)
	}
	return NewStoreAt(filepath.Join(configDir, appConfigName, fileName)), nil
}

// NewStoreAt uses an explicit file path (tests use a temp dir).
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Defaults returns the settings used when no file exists yet.
func Defaults() *types.AppSettings {
	return &types.AppSettings{
		DeletePatterns: []types.DeletePattern{},
		RenameTemplates: []types.RenameTemplate{
			{Name: "date-sequence", Template: "{capture_date:YYYYMMDD}_{capture_time:HHmmss}_{seq:3}"},
		},
		OutputDirectories: map[string]string{},
		Theme:             types.ThemeSystem,
	}
}

// Load reads the settings. Missing fields default; when the file was
// missing or incomplete, the normalized document is written back.
func (s *Store) Load() (*types.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		defaults := Defaults()
		if err := s.writeLocked(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	loaded := &types.AppSettings{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if normalize(loaded) {
		if err := s.writeLocked(loaded); err != nil {
			return nil, err
		}
	}
	return loaded, nil
}

// Save validates and schedules a debounced write. Consecutive saves within
// the debounce window collapse into one file write carrying the last value.
func (s *Store) Save(settings *types.AppSettings) error {
	if err := Validate(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = settings
	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = time.AfterFunc(saveDebounce, s.flushQueued)
	return nil
}

// SaveNow validates and writes immediately, bypassing the debounce.
func (s *Store) SaveNow(settings *types.AppSettings) error {
	if err := Validate(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.queued = nil
	return s.writeLocked(settings)
}

// Flush forces any queued debounced save to disk.
func (s *Store) Flush() {
	s.flushQueued()
}

func (s *Store) flushQueued() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queued == nil {
		return
	}
	settings := s.queued
	s.queued = nil
	if err := s.writeLocked(settings); err != nil {
		// A failed debounced save keeps the previous file contents.
		return
	}
}

func (s *Store) writeLocked(settings *types.AppSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return fsatomic.WriteReplace(s.path, data)
}

// Export writes the current settings to an arbitrary path.
func (s *Store) Export(outputPath string) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return fsatomic.WriteReplace(strings.TrimSpace(outputPath), data)
}

// PreviewImport lists the conflicts an import would have to resolve.
func (s *Store) PreviewImport(inputPath string) (*types.ImportConflictPreview, error) {
	imported, err := readSettingsFile(inputPath)
	if err != nil {
		return nil, err
	}
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	preview := &types.ImportConflictPreview{
		DeletePatternNames:  []string{},
		RenameTemplateNames: []string{},
		OutputDirectoryKeys: []string{},
	}

	existingPatterns := lowerNameSet(patternNames(existing.DeletePatterns))
	for _, pattern := range imported.DeletePatterns {
		if existingPatterns[strings.ToLower(pattern.Name)] {
			preview.DeletePatternNames = append(preview.DeletePatternNames, pattern.Name)
		}
	}
	existingTemplates := lowerNameSet(templateNames(existing.RenameTemplates))
	for _, tmpl := range imported.RenameTemplates {
		if existingTemplates[strings.ToLower(tmpl.Name)] {
			preview.RenameTemplateNames = append(preview.RenameTemplateNames, tmpl.Name)
		}
	}
	for key := range imported.OutputDirectories {
		if _, ok := existing.OutputDirectories[key]; ok {
			preview.OutputDirectoryKeys = append(preview.OutputDirectoryKeys, key)
		}
	}
	sortCaseInsensitive(preview.DeletePatternNames)
	sortCaseInsensitive(preview.RenameTemplateNames)
	sort.Strings(preview.OutputDirectoryKeys)

	preview.ThemeConflict = imported.Theme != types.ThemeSystem && imported.Theme != existing.Theme
	return preview, nil
}

// Import applies a settings file. mode "overwrite" replaces everything;
// "merge" combines both sides under the given conflict policy.
func (s *Store) Import(inputPath, mode string, policy types.MergePolicy) (*types.AppSettings, error) {
	imported, err := readSettingsFile(inputPath)
	if err != nil {
		return nil, err
	}

	var next *types.AppSettings
	switch mode {
	case "overwrite":
		next = imported
	case "merge":
		existing, loadErr := s.Load()
		if loadErr != nil {
			return nil, loadErr
		}
		next, err = Merge(existing, imported, policy)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("mode must be overwrite or merge")
	}

	if err := s.SaveNow(next); err != nil {
		return nil, err
	}
	return next, nil
}

func readSettingsFile(path string) (*types.AppSettings, error) {
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	settings := &types.AppSettings{}
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	normalize(settings)
	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// normalize fills missing fields and reports whether anything changed.
func normalize(settings *types.AppSettings) bool {
	changed := false
	if settings.DeletePatterns == nil {
		settings.DeletePatterns = []types.DeletePattern{}
		changed = true
	}
	if settings.RenameTemplates == nil {
		settings.RenameTemplates = Defaults().RenameTemplates
		changed = true
	}
	if settings.OutputDirectories == nil {
		settings.OutputDirectories = map[string]string{}
		changed = true
	}
	if settings.Theme == "" {
		settings.Theme = types.ThemeSystem
		changed = true
	}
	return changed
}

// Validate enforces the settings invariants.
func Validate(settings *types.AppSettings) error {
	names := make(map[string]bool)
	for _, pattern := range settings.DeletePatterns {
		name := strings.TrimSpace(pattern.Name)
		if n := len([]rune(name)); n < 1 || n > 40 {
			return fmt.Errorf("delete pattern name must be 1-40 characters")
		}
		lowered := strings.ToLower(name)
		if names[lowered] {
			return fmt.Errorf("delete pattern names must be unique (case-insensitive)")
		}
		names[lowered] = true
		if len(pattern.Extensions) == 0 {
			return fmt.Errorf("delete pattern %q needs at least one extension", pattern.Name)
		}
		if pattern.Mode == types.DeleteRetreat && strings.TrimSpace(pattern.RetreatDir) == "" {
			return fmt.Errorf("delete pattern %q uses retreat mode but has no retreat directory", pattern.Name)
		}
	}
	return nil
}

func lowerNameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return set
}

func patternNames(patterns []types.DeletePattern) []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return names
}

func templateNames(templates []types.RenameTemplate) []string {
	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = t.Name
	}
	return names
}

func sortCaseInsensitive(values []string) {
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
}
