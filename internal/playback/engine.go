// Package playback enforces single-flight clip playback on one output.
package playback

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/library"
)

// waitSlack bounds a synchronous play beyond the clip's own length.
const waitSlack = 2 * time.Second

// Engine serializes every play request: the newest request stops whatever
// is audible and starts its clip.
type Engine struct {
	out    audio.Output
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the source used to pick clips.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// New creates an engine over out.
func New(out audio.Output, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		out:    out,
		logger: logger,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x70697a6f6f)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlayRandom plays one clip chosen uniformly from the animal's list. An
// animal with no clips is a logged no-op and returns nil.
func (e *Engine) PlayRandom(lib *library.Library, animal string) *audio.Clip {
	e.mu.Lock()
	defer e.mu.Unlock()

	clips := lib.Clips(animal)
	if len(clips) == 0 {
		e.logger.Warn("no clips for animal", "animal", animal)
		return nil
	}

	clip := clips[e.rng.IntN(len(clips))]
	if !e.playLocked(clip, animal) {
		return nil
	}
	return clip
}

// PlayOne plays a single clip, typically a lifecycle cue. Failures are
// logged and reported as false.
func (e *Engine) PlayOne(clip *audio.Clip, label string) bool {
	if clip == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playLocked(clip, label)
}

// PlayAndWait plays clip and waits until it is no longer audible, bounded by
// the clip length plus a short slack.
func (e *Engine) PlayAndWait(ctx context.Context, clip *audio.Clip, label string) bool {
	if !e.PlayOne(clip, label) {
		return false
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(clip.Duration() + waitSlack)
	defer deadline.Stop()

	for e.Busy() {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			e.logger.Warn("clip still playing after wait limit", "label", label, "clip", clip.Name)
			return false
		case <-ticker.C:
		}
	}
	return true
}

// Stop silences the output.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out.Busy() {
		e.out.Stop()
	}
}

// Busy reports whether a clip is audible.
func (e *Engine) Busy() bool {
	return e.out.Busy()
}

func (e *Engine) playLocked(clip *audio.Clip, label string) bool {
	if e.out.Busy() {
		e.out.Stop()
		e.logger.Debug("playback interrupted")
	}
	if err := e.out.Play(clip); err != nil {
		e.logger.Error("playback failed", "label", label, "clip", clip.Name, "error", err.Error())
		return false
	}
	e.logger.Info("playing clip", "label", label, "clip", clip.Name, "duration_ms", clip.Duration().Milliseconds())
	return true
}
