package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/faiface/beep"
)

// Backend names accepted by Open.
const (
	BackendPulse   = "pulse"
	BackendSpeaker = "speaker"
)

// Output is the single audio channel clips are played on. Play replaces
// anything audible; at most one clip plays at a time.
type Output interface {
	Play(clip *Clip) error
	Stop()
	Busy() bool
	Close() error
}

// Options selects and tunes an output backend.
type Options struct {
	Backend    string
	Device     string
	SampleRate beep.SampleRate
	Buffer     time.Duration
}

// Open creates the configured output backend.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Output, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 100 * time.Millisecond
	}

	switch opts.Backend {
	case "", BackendPulse:
		return NewPulseOutput(ctx, opts, logger)
	case BackendSpeaker:
		return NewSpeakerOutput(opts.SampleRate, opts.Buffer)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", opts.Backend)
	}
}

// PlayAndWait plays clip and blocks until it is no longer audible, the
// context ends, or limit elapses.
func PlayAndWait(ctx context.Context, out Output, clip *Clip, limit time.Duration) error {
	if err := out.Play(clip); err != nil {
		return err
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for out.Busy() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("clip %s still playing after %s", clip.Name, limit)
		case <-ticker.C:
		}
	}
	return nil
}
