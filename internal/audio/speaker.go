package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// SpeakerOutput plays clips through the process-wide beep speaker (ALSA on
// Linux). Only one may exist per process.
type SpeakerOutput struct {
	mu   sync.Mutex
	gen  atomic.Uint64
	busy atomic.Bool
}

// NewSpeakerOutput initializes the speaker at rate with the given buffer.
func NewSpeakerOutput(rate beep.SampleRate, buffer time.Duration) (*SpeakerOutput, error) {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &SpeakerOutput{}, nil
}

// Play cuts anything audible and starts clip.
func (o *SpeakerOutput) Play(clip *Clip) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	gen := o.gen.Add(1)
	speaker.Clear()
	o.busy.Store(true)
	speaker.Play(beep.Seq(clip.Streamer(), beep.Callback(func() {
		// Runs on the speaker goroutine; a newer Play owns busy.
		if o.gen.Load() == gen {
			o.busy.Store(false)
		}
	})))
	return nil
}

// Stop cuts the current clip.
func (o *SpeakerOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gen.Add(1)
	speaker.Clear()
	o.busy.Store(false)
}

// Busy reports whether a clip is still audible.
func (o *SpeakerOutput) Busy() bool {
	return o.busy.Load()
}

// Close silences and shuts down the speaker.
func (o *SpeakerOutput) Close() error {
	o.Stop()
	speaker.Close()
	return nil
}
