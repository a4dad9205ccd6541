// Package log wraps zerolog with the small surface the engine needs:
// leveled messages, per-item records, and console progress/summary output.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes structured records to an optional file sink and rendered
// progress to the console.
type Logger struct {
	mu      sync.Mutex
	zl      zerolog.Logger
	console io.Writer
	file    *os.File
}

// New opens (or creates) the log file and returns a logger. jsonFormat
// selects JSON lines over the console-style text writer for the file sink.
func New(logFilePath string, jsonFormat bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var sink io.Writer = file
	if !jsonFormat {
		sink = zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true}
	}
	return &Logger{
		zl:      zerolog.New(sink).With().Timestamp().Logger(),
		console: os.Stdout,
		file:    file,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), console: io.Discard}
}

// Close releases the file sink.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *Logger) Error(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}

// Item records the outcome of one executed plan item.
func (l *Logger) Item(operation, source, destination, status, reason string) {
	event := l.zl.Info()
	if status == "failed" {
		event = l.zl.Error()
	}
	event.
		Str("operation", operation).
		Str("source", source).
		Str("destination", destination).
		Str("status", status).
		Str("reason", reason).
		Msg("item")
}

// Progress renders an in-place progress line on the console.
func (l *Logger) Progress(current, total int, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filepath.Base(path))
}

// Summary prints the final counts of a run.
func (l *Logger) Summary(operation string, processed, succeeded, failed, skipped int, canceled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "\n=== %s summary ===\n", operation)
	fmt.Fprintf(l.console, "Processed: %d\n", processed)
	fmt.Fprintf(l.console, "Succeeded: %d\n", succeeded)
	fmt.Fprintf(l.console, "Failed:    %d\n", failed)
	fmt.Fprintf(l.console, "Skipped:   %d\n", skipped)
	if canceled {
		fmt.Fprintln(l.console, "Canceled:  yes")
	}
}
