package metadata

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var isoDateTimeRE = regexp.MustCompile(
	`(?i)\d{4}[-/]\d{2}[-/]\d{2}[T\s]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)

var sidecarKeyTokens = []string{"creation", "record", "shoot", "start", "date", "time"}

// readSidecarCreationTime scans XML sidecar files next to an MXF clip for a
// creation timestamp (camera vendors write NonRealTimeMeta and similar
// documents alongside the essence file).
func readSidecarCreationTime(path string) (time.Time, bool) {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	candidates := []string{strings.TrimSuffix(path, filepath.Ext(path)) + ".xml"}

	if entries, err := os.ReadDir(filepath.Dir(path)); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !strings.EqualFold(filepath.Ext(name), ".xml") {
				continue
			}
			fileStem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
			if fileStem == stem || strings.HasPrefix(fileStem, stem) {
				candidates = append(candidates, filepath.Join(filepath.Dir(path), name))
			}
		}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		if t, ok := parseDateTimeFromXML(string(data)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateTimeFromXML(text string) (time.Time, bool) {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		keyed := false
		for _, key := range sidecarKeyTokens {
			if strings.Contains(lower, key) {
				keyed = true
				break
			}
		}
		if !keyed {
			continue
		}
		for _, match := range isoDateTimeRE.FindAllString(line, -1) {
			if t, ok := parseLooseDateTime(match); ok {
				return t, true
			}
		}
	}
	for _, match := range isoDateTimeRE.FindAllString(text, -1) {
		if t, ok := parseLooseDateTime(match); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseLooseDateTime(value string) (time.Time, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "/", "-")
	if t, err := time.Parse(time.RFC3339, normalized); err == nil {
		return t.Local(), true
	}
	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05-07:00",
		"2006:01:02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, normalized, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
