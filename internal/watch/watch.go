// Package watch triggers a profile reload when profile or sound files change.
package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/matteobonanomi/pizoo/internal/profile"
)

// Watcher coalesces filesystem events on a replaceable set of directories
// into debounced onChange calls.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	mu      sync.Mutex
	watched map[string]struct{}
}

// New creates a watcher with nothing watched yet.
func New(debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		watched:  map[string]struct{}{},
	}, nil
}

// Paths lists the directories whose changes affect profile p: the profiles
// directory, the sounds directory, and each animal folder.
func Paths(profilesDir string, p profile.Profile) []string {
	paths := []string{profilesDir, p.SoundsDirectory}
	for _, animal := range p.Animals() {
		paths = append(paths, p.AnimalDir(animal))
	}
	return paths
}

// Set replaces the watched directories. Missing directories are skipped.
func (w *Watcher) Set(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		path = filepath.Clean(path)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			w.logger.Debug("watch path unavailable", "path", path)
			continue
		}
		next[path] = struct{}{}
	}

	for path := range w.watched {
		if _, keep := next[path]; keep {
			continue
		}
		if err := w.fsw.Remove(path); err != nil {
			w.logger.Debug("unwatch failed", "path", path, "error", err.Error())
		}
	}
	for path := range next {
		if _, have := w.watched[path]; have {
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch failed", "path", path, "error", err.Error())
			delete(next, path)
		}
	}
	w.watched = next
}

// Watched returns the current watch set, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.watched))
	for path := range w.watched {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Run delivers debounced change notifications until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("filesystem change", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.logger.Info("changes detected, reloading profile")
			w.onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err.Error())
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
