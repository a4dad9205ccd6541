package ops

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/log"
	"github.com/ponpaku/creators-file-manager/internal/metadata"
	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/internal/progress"
)

// Engine wires the operation façades to their collaborators. The zero
// value is not usable; construct with New.
type Engine struct {
	probe    metadata.Prober
	trash    fsatomic.Trasher
	workers  int
	progress progress.Func
	estimate progress.EstimateFunc
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithProbe injects the video capture-datetime collaborator.
func WithProbe(p metadata.Prober) Option {
	return func(e *Engine) { e.probe = p }
}

// WithTrasher injects the recycle-bin collaborator.
func WithTrasher(t fsatomic.Trasher) Option {
	return func(e *Engine) { e.trash = t }
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithProgress sets the operation progress sink.
func WithProgress(fn progress.Func) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithEstimateProgress sets the compress estimate progress sink.
func WithEstimateProgress(fn progress.EstimateFunc) Option {
	return func(e *Engine) { e.estimate = fn }
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine with default collaborators.
func New(opts ...Option) *Engine {
	e := &Engine{
		trash:  fsatomic.DefaultTrasher(),
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resolveOutputDir returns the explicit output directory when given;
// otherwise it derives `<inputParent>/<inputName><suffixTag><YYYYMMDDHHMMSS>`
// from the common input root, disambiguated with _noN.
func resolveOutputDir(inputRoot, explicit, suffixTag string, now time.Time) (string, *AppError) {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return filepath.Clean(trimmed), nil
	}
	if inputRoot == "" {
		return "", invalidRequest("inputs share no common root; an output directory is required")
	}
	parent := filepath.Dir(inputRoot)
	if parent == inputRoot {
		return "", invalidRequest("cannot derive an output directory at a volume root")
	}
	name := fmt.Sprintf("%s%s%s", filepath.Base(inputRoot), suffixTag, now.Format("20060102150405"))
	return fsatomic.AllocateSequencedDir(filepath.Join(parent, name)), nil
}

// validateFlattenOutput rejects output directories equal to or inside the
// input directory.
func validateFlattenOutput(inputDir, outputDir string) *AppError {
	if pathnorm.Key(inputDir) == pathnorm.Key(outputDir) {
		return invalidRequest("output directory must differ from the input directory")
	}
	if parts, err := pathnorm.Relativize(inputDir, outputDir); err == nil && len(parts) > 0 {
		return invalidRequest("output directory must not be inside the input directory")
	}
	return nil
}
