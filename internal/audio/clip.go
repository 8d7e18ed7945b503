// Package audio decodes sound files into in-memory clips and plays them on a
// single output channel.
package audio

import (
	"errors"
	"time"

	"github.com/faiface/beep"
)

// ErrEmptyClip reports a decode that produced no frames.
var ErrEmptyClip = errors.New("clip has no audio frames")

// Clip is a decoded, fully buffered sound. Clips are immutable once built and
// may be streamed any number of times.
type Clip struct {
	Name string
	buf  *beep.Buffer
}

// NewClip drains s into memory using format.
func NewClip(name string, format beep.Format, s beep.Streamer) (*Clip, error) {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyClip
	}
	return &Clip{Name: name, buf: buf}, nil
}

// FromSamples wraps pre-rendered stereo frames.
func FromSamples(name string, rate beep.SampleRate, frames [][2]float64) *Clip {
	buf := beep.NewBuffer(outputFormat(rate))
	buf.Append(&sliceStreamer{frames: frames})
	return &Clip{Name: name, buf: buf}
}

// Streamer returns a fresh reader positioned at the first frame.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}

// Len is the number of frames in the clip.
func (c *Clip) Len() int {
	return c.buf.Len()
}

// SampleRate is the rate the clip was rendered at.
func (c *Clip) SampleRate() beep.SampleRate {
	return c.buf.Format().SampleRate
}

// Duration is the clip length at its sample rate.
func (c *Clip) Duration() time.Duration {
	return c.SampleRate().D(c.buf.Len())
}

func outputFormat(rate beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
}

type sliceStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error {
	return nil
}
