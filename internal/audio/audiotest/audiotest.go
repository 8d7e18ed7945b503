// Package audiotest provides an in-memory audio output and fixture helpers.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/stretchr/testify/require"
)

// Output records plays and stops. A clip stays audible until Finish or Stop.
type Output struct {
	mu       sync.Mutex
	plays    []string
	stops    int
	overlaps int
	current  *audio.Clip
	closed   bool

	// PlayErr, when set, is returned by Play and nothing starts.
	PlayErr error
}

var _ audio.Output = (*Output)(nil)

// Play starts clip. Starting while another clip is audible counts as an overlap.
func (o *Output) Play(clip *audio.Clip) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.PlayErr != nil {
		return o.PlayErr
	}
	if o.current != nil {
		o.overlaps++
	}
	o.current = clip
	o.plays = append(o.plays, clip.Name)
	return nil
}

// Stop silences the current clip.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
	o.current = nil
}

// Busy reports whether a clip is audible.
func (o *Output) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// Close marks the output closed.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.current = nil
	return nil
}

// Finish simulates the current clip reaching its end.
func (o *Output) Finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = nil
}

// Plays returns the names of every clip started, in order.
func (o *Output) Plays() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.plays...)
}

// Current returns the audible clip name, or "".
func (o *Output) Current() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return ""
	}
	return o.current.Name
}

// Stops returns how many times Stop was called.
func (o *Output) Stops() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stops
}

// Overlaps counts plays issued while another clip was still audible.
func (o *Output) Overlaps() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overlaps
}

// Closed reports whether Close was called.
func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// WriteWAV writes a short 440Hz stereo WAV to path, creating parent directories.
func WriteWAV(t *testing.T, path string, rate beep.SampleRate, frames int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= frames {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < frames {
			v := 0.2 * math.Sin(2*math.Pi*440*float64(pos)/float64(rate))
			samples[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, tone, format))
}

// WriteCorrupt writes bytes that no decoder accepts under a clip extension.
func WriteCorrupt(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o600))
}
