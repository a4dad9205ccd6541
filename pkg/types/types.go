// Package types defines the core data structures shared across the batch
// file-operations engine: file entries, plan and execution envelopes, the
// closed status enums, progress events, and the persisted settings shapes.
package types

import (
	"time"
)

// FileEntry represents a collected file with its stat metadata.
type FileEntry struct {
	// Path is the absolute, normalized path to the file.
	Path string
	// Name is the base filename.
	Name string
	// Size is the file size in bytes.
	Size int64
	// ModTime is the file modification time.
	ModTime time.Time
	// Extension is the lowercase file extension without dot (e.g., "jpg").
	Extension string
}

// PreviewStatus is the plan-time status of an item.
type PreviewStatus string

const (
	StatusReady   PreviewStatus = "ready"
	StatusSkipped PreviewStatus = "skipped"
)

// ExecuteStatus is the outcome of executing one plan item.
type ExecuteStatus string

const (
	ExecSucceeded ExecuteStatus = "succeeded"
	ExecFailed    ExecuteStatus = "failed"
	ExecSkipped   ExecuteStatus = "skipped"
)

// ConflictPolicy defines how a destination-name collision is resolved.
type ConflictPolicy string

const (
	// ConflictOverwrite replaces the existing destination via atomic swap.
	ConflictOverwrite ConflictPolicy = "overwrite"
	// ConflictSequence appends _noN to the stem until the name is unique.
	ConflictSequence ConflictPolicy = "sequence"
	// ConflictSkip marks the colliding item skipped.
	ConflictSkip ConflictPolicy = "skip"
)

// DeleteMode selects how the delete operation disposes of files.
type DeleteMode string

const (
	DeleteDirect  DeleteMode = "direct"
	DeleteTrash   DeleteMode = "trash"
	DeleteRetreat DeleteMode = "retreat"
)

// RenameSource selects where the rename operation takes its timestamp from.
type RenameSource string

const (
	// SourceCaptureThenModified tries capture metadata first, then the
	// file modification time.
	SourceCaptureThenModified RenameSource = "captureThenModified"
	// SourceModifiedOnly always uses the file modification time.
	SourceModifiedOnly RenameSource = "modifiedOnly"
	// SourceCurrentTime uses the execution timestamp, shared across the run.
	SourceCurrentTime RenameSource = "currentTime"
)

// OperationProgressEvent is emitted once per completed item and once at the
// end of a run. Counts are cumulative and monotonic.
type OperationProgressEvent struct {
	Operation   string `json:"operation"`
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	CurrentPath string `json:"currentPath,omitempty"`
	Done        bool   `json:"done"`
	Canceled    bool   `json:"canceled"`
}

// EstimateProgressEvent reports per-sample progress of the compress
// target-size solver and estimator.
type EstimateProgressEvent struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// ===== Rename =====

type RenameRequest struct {
	InputPaths        []string       `json:"inputPaths"`
	IncludeSubfolders bool           `json:"includeSubfolders"`
	Template          string         `json:"template"`
	Source            RenameSource   `json:"source"`
	OutputDir         string         `json:"outputDir,omitempty"`
	ConflictPolicy    ConflictPolicy `json:"conflictPolicy,omitempty"`
	UseProbe          bool           `json:"useProbe,omitempty"`
}

type RenamePreviewItem struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath,omitempty"`
	Status          PreviewStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type RenamePreviewResponse struct {
	Items   []RenamePreviewItem `json:"items"`
	Total   int                 `json:"total"`
	Ready   int                 `json:"ready"`
	Skipped int                 `json:"skipped"`
}

type RenameExecuteDetail struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath,omitempty"`
	Status          ExecuteStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type RenameExecuteResponse struct {
	Processed int                   `json:"processed"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Skipped   int                   `json:"skipped"`
	Details   []RenameExecuteDetail `json:"details"`
}

// TemplateTag describes one placeholder the rename template accepts, for
// display in UIs.
type TemplateTag struct {
	Token       string `json:"token"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ===== Delete =====

type DeleteRequest struct {
	InputPaths        []string       `json:"inputPaths"`
	IncludeSubfolders bool           `json:"includeSubfolders"`
	Extensions        []string       `json:"extensions"`
	Mode              DeleteMode     `json:"mode"`
	RetreatDir        string         `json:"retreatDir,omitempty"`
	ConflictPolicy    ConflictPolicy `json:"conflictPolicy,omitempty"`
}

type DeletePreviewItem struct {
	SourcePath      string        `json:"sourcePath"`
	Action          string        `json:"action"`
	DestinationPath string        `json:"destinationPath,omitempty"`
	Status          PreviewStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type DeletePreviewResponse struct {
	Items   []DeletePreviewItem `json:"items"`
	Total   int                 `json:"total"`
	Ready   int                 `json:"ready"`
	Skipped int                 `json:"skipped"`
}

type DeleteExecuteDetail struct {
	SourcePath      string        `json:"sourcePath"`
	Action          string        `json:"action"`
	DestinationPath string        `json:"destinationPath,omitempty"`
	Status          ExecuteStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type DeleteExecuteResponse struct {
	Processed int                   `json:"processed"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Skipped   int                   `json:"skipped"`
	Details   []DeleteExecuteDetail `json:"details"`
}

// ===== Compress =====

type CompressRequest struct {
	InputPaths        []string       `json:"inputPaths"`
	IncludeSubfolders bool           `json:"includeSubfolders"`
	ResizePercent     float64        `json:"resizePercent"`
	Quality           int            `json:"quality"`
	TargetSizeKB      int64          `json:"targetSizeKb,omitempty"`
	TolerancePercent  float64        `json:"tolerancePercent,omitempty"`
	PreserveExif      bool           `json:"preserveExif"`
	OutputDir         string         `json:"outputDir,omitempty"`
	ConflictPolicy    ConflictPolicy `json:"conflictPolicy"`
}

type CompressPreviewItem struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath"`
	SourceSize      int64         `json:"sourceSize"`
	EstimatedSize   int64         `json:"estimatedSize"`
	Status          PreviewStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type CompressPreviewResponse struct {
	OutputDir              string                `json:"outputDir"`
	EffectiveResizePercent float64               `json:"effectiveResizePercent"`
	EffectiveQuality       int                   `json:"effectiveQuality"`
	TargetSizeKB           int64                 `json:"targetSizeKb,omitempty"`
	TolerancePercent       float64               `json:"tolerancePercent"`
	Items                  []CompressPreviewItem `json:"items"`
	Total                  int                   `json:"total"`
	Ready                  int                   `json:"ready"`
	Skipped                int                   `json:"skipped"`
	Warnings               int                   `json:"warnings"`
}

type CompressExecuteDetail struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath"`
	Status          ExecuteStatus `json:"status"`
	OutputSize      int64         `json:"outputSize,omitempty"`
	Reason          string        `json:"reason,omitempty"`
}

type CompressExecuteResponse struct {
	OutputDir              string                  `json:"outputDir"`
	EffectiveResizePercent float64                 `json:"effectiveResizePercent"`
	EffectiveQuality       int                     `json:"effectiveQuality"`
	Processed              int                     `json:"processed"`
	Succeeded              int                     `json:"succeeded"`
	Failed                 int                     `json:"failed"`
	Skipped                int                     `json:"skipped"`
	Details                []CompressExecuteDetail `json:"details"`
}

// CompressCollectInfo summarizes the collected inputs before estimating.
type CompressCollectInfo struct {
	FileCount int   `json:"fileCount"`
	TotalSize int64 `json:"totalSize"`
}

// CompressEstimate is the sampled size estimate for fixed parameters.
type CompressEstimate struct {
	FileCount          int   `json:"fileCount"`
	TotalSourceSize    int64 `json:"totalSourceSize"`
	EstimatedTotalSize int64 `json:"estimatedTotalSize"`
}

// ===== Flatten =====

type FlattenRequest struct {
	InputDir       string         `json:"inputDir"`
	OutputDir      string         `json:"outputDir,omitempty"`
	ConflictPolicy ConflictPolicy `json:"conflictPolicy"`
}

type FlattenPreviewItem struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath"`
	Status          PreviewStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type FlattenPreviewResponse struct {
	OutputDir  string               `json:"outputDir"`
	Items      []FlattenPreviewItem `json:"items"`
	Total      int                  `json:"total"`
	Ready      int                  `json:"ready"`
	Skipped    int                  `json:"skipped"`
	Collisions int                  `json:"collisions"`
}

type FlattenExecuteDetail struct {
	SourcePath      string        `json:"sourcePath"`
	DestinationPath string        `json:"destinationPath"`
	Status          ExecuteStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type FlattenExecuteResponse struct {
	OutputDir string                 `json:"outputDir"`
	Processed int                    `json:"processed"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Skipped   int                    `json:"skipped"`
	Details   []FlattenExecuteDetail `json:"details"`
}

// ===== EXIF offset =====

type ExifOffsetRequest struct {
	InputPaths        []string `json:"inputPaths"`
	IncludeSubfolders bool     `json:"includeSubfolders"`
	OffsetSeconds     int64    `json:"offsetSeconds"`
}

type ExifOffsetPreviewItem struct {
	SourcePath        string        `json:"sourcePath"`
	OriginalDateTime  string        `json:"originalDatetime,omitempty"`
	CorrectedDateTime string        `json:"correctedDatetime,omitempty"`
	Status            PreviewStatus `json:"status"`
	Reason            string        `json:"reason,omitempty"`
}

type ExifOffsetPreviewResponse struct {
	Items   []ExifOffsetPreviewItem `json:"items"`
	Total   int                     `json:"total"`
	Ready   int                     `json:"ready"`
	Skipped int                     `json:"skipped"`
}

type ExifOffsetExecuteDetail struct {
	SourcePath string        `json:"sourcePath"`
	Status     ExecuteStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
}

type ExifOffsetExecuteResponse struct {
	Processed int                       `json:"processed"`
	Succeeded int                       `json:"succeeded"`
	Failed    int                       `json:"failed"`
	Skipped   int                       `json:"skipped"`
	Details   []ExifOffsetExecuteDetail `json:"details"`
}

// ===== Metadata strip =====

// StripCategories is the category mask for metadata stripping. Each field
// maps to a concrete set of EXIF tag IDs or JPEG app segments.
type StripCategories struct {
	GPS              bool `json:"gps"`
	CameraLens       bool `json:"cameraLens"`
	Software         bool `json:"software"`
	AuthorCopyright  bool `json:"authorCopyright"`
	Comments         bool `json:"comments"`
	Thumbnail        bool `json:"thumbnail"`
	IPTC             bool `json:"iptc"`
	XMP              bool `json:"xmp"`
	ShootingSettings bool `json:"shootingSettings"`
	CaptureDateTime  bool `json:"captureDateTime"`
}

// StripPreset names a predefined category mask.
type StripPreset string

const (
	PresetSnsPublish StripPreset = "snsPublish"
	PresetDelivery   StripPreset = "delivery"
	PresetFullClean  StripPreset = "fullClean"
	PresetCustom     StripPreset = "custom"
)

type MetadataStripRequest struct {
	InputPaths        []string        `json:"inputPaths"`
	IncludeSubfolders bool            `json:"includeSubfolders"`
	Preset            StripPreset     `json:"preset"`
	Categories        StripCategories `json:"categories"`
}

type MetadataStripPreviewItem struct {
	SourcePath      string        `json:"sourcePath"`
	FoundCategories []string      `json:"foundCategories"`
	TagsToStrip     int           `json:"tagsToStrip"`
	HasIPTC         bool          `json:"hasIptc"`
	HasXMP          bool          `json:"hasXmp"`
	Status          PreviewStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
}

type MetadataStripPreviewResponse struct {
	Items   []MetadataStripPreviewItem `json:"items"`
	Total   int                        `json:"total"`
	Ready   int                        `json:"ready"`
	Skipped int                        `json:"skipped"`
}

type MetadataStripExecuteDetail struct {
	SourcePath   string        `json:"sourcePath"`
	StrippedTags int           `json:"strippedTags"`
	StrippedIPTC bool          `json:"strippedIptc"`
	StrippedXMP  bool          `json:"strippedXmp"`
	Status       ExecuteStatus `json:"status"`
	Reason       string        `json:"reason,omitempty"`
}

type MetadataStripExecuteResponse struct {
	Processed int                          `json:"processed"`
	Succeeded int                          `json:"succeeded"`
	Failed    int                          `json:"failed"`
	Skipped   int                          `json:"skipped"`
	Details   []MetadataStripExecuteDetail `json:"details"`
}

// ===== Settings =====

// ThemeMode is the UI theme preference stored in settings.
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

// DeletePattern is a saved extension set with a delete mode.
type DeletePattern struct {
	Name       string     `json:"name"`
	Extensions []string   `json:"extensions"`
	Mode       DeleteMode `json:"mode"`
	RetreatDir string     `json:"retreatDir,omitempty"`
}

// RenameTemplate is a saved, named rename template.
type RenameTemplate struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// AppSettings is the persisted settings document.
type AppSettings struct {
	DeletePatterns    []DeletePattern   `json:"deletePatterns"`
	RenameTemplates   []RenameTemplate  `json:"renameTemplates"`
	OutputDirectories map[string]string `json:"outputDirectories"`
	Theme             ThemeMode         `json:"theme"`
}

// ImportConflictPreview lists the names that exist on both sides of a
// settings merge, so the caller can choose a policy before importing.
type ImportConflictPreview struct {
	DeletePatternNames  []string `json:"deletePatternNames"`
	RenameTemplateNames []string `json:"renameTemplateNames"`
	OutputDirectoryKeys []string `json:"outputDirectoryKeys"`
	ThemeConflict       bool     `json:"themeConflict"`
}

// MergePolicy resolves settings-merge conflicts.
type MergePolicy string

const (
	MergeKeepExisting MergePolicy = "existing"
	MergeTakeImport   MergePolicy = "import"
	MergeCancel       MergePolicy = "cancel"
)
