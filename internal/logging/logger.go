// Package logging configures per-session JSONL logging output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Options controls where the session log goes and what it includes.
type Options struct {
	Dir     string
	Level   slog.Level
	Console io.Writer
	Now     func() time.Time
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New opens a fresh session log file inside opts.Dir, creating the directory
// when needed, and mirrors every line to opts.Console when set.
func New(opts Options) (Runtime, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Runtime{}, fmt.Errorf("create log dir %q: %w", opts.Dir, err)
	}

	path := filepath.Join(opts.Dir, sessionFileName(opts.Now()))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Runtime{}, err
	}

	var w io.Writer = f
	if opts.Console != nil {
		w = io.MultiWriter(f, opts.Console)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return Runtime{Logger: slog.New(h), Path: path, closer: f}, nil
}

// Discard returns a logger that drops everything; used when callers pass nil.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionFileName(t time.Time) string {
	return "session_" + t.Format("2006-01-02_15-04-05") + ".log"
}
