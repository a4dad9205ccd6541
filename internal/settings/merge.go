package settings

import (
	"fmt"
	"strings"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// Merge combines imported settings into existing ones. Name collisions
// (case-insensitive) are resolved by the policy; MergeCancel fails on the
// first conflict so the caller can re-prompt.
func Merge(existing, imported *types.AppSettings, policy types.MergePolicy) (*types.AppSettings, error) {
	if policy != types.MergeKeepExisting && policy != types.MergeTakeImport && policy != types.MergeCancel {
		return nil, fmt.Errorf("merge policy must be existing, import, or cancel")
	}

	merged := &types.AppSettings{
		DeletePatterns:    append([]types.DeletePattern(nil), existing.DeletePatterns...),
		RenameTemplates:   append([]types.RenameTemplate(nil), existing.RenameTemplates...),
		OutputDirectories: map[string]string{},
		Theme:             existing.Theme,
	}
	for key, value := range existing.OutputDirectories {
		merged.OutputDirectories[key] = value
	}

	for _, pattern := range imported.DeletePatterns {
		idx := findByName(patternNames(merged.DeletePatterns), pattern.Name)
		if idx < 0 {
			merged.DeletePatterns = append(merged.DeletePatterns, pattern)
			continue
		}
		switch policy {
		case types.MergeTakeImport:
			merged.DeletePatterns[idx] = pattern
		case types.MergeCancel:
			return nil, fmt.Errorf("delete pattern %q conflicts", pattern.Name)
		}
	}

	for _, tmpl := range imported.RenameTemplates {
		idx := findByName(templateNames(merged.RenameTemplates), tmpl.Name)
		if idx < 0 {
			merged.RenameTemplates = append(merged.RenameTemplates, tmpl)
			continue
		}
		switch policy {
		case types.MergeTakeImport:
			merged.RenameTemplates[idx] = tmpl
		case types.MergeCancel:
			return nil, fmt.Errorf("rename template %q conflicts", tmpl.Name)
		}
	}

	for key, value := range imported.OutputDirectories {
		if _, ok := merged.OutputDirectories[key]; !ok {
			merged.OutputDirectories[key] = value
			continue
		}
		switch policy {
		case types.MergeTakeImport:
			merged.OutputDirectories[key] = value
		case types.MergeCancel:
			return nil, fmt.Errorf("output directory key %q conflicts", key)
		}
	}

	switch policy {
	case types.MergeTakeImport:
		merged.Theme = imported.Theme
	case types.MergeCancel:
		if imported.Theme != types.ThemeSystem && imported.Theme != existing.Theme {
			return nil, fmt.Errorf("theme value conflicts")
		}
	}
	return merged, nil
}

func findByName(names []string, name string) int {
	for i, candidate := range names {
		if strings.EqualFold(candidate, name) {
			return i
		}
	}
	return -1
}
