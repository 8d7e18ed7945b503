package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// DefaultSampleRate matches the rate the appliance mixer runs at.
const DefaultSampleRate beep.SampleRate = 22050

const resampleQuality = 4

// ErrUnsupportedFormat reports a file extension no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeError reports a single file that could not be turned into a clip.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SupportedFormats lists recognized clip extensions.
func SupportedFormats() []string {
	return []string{".wav", ".mp3", ".ogg", ".flac"}
}

// IsSupported checks if a file extension is a recognized clip format.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Decoder turns sound files into clips rendered at one output rate.
type Decoder struct {
	SampleRate beep.SampleRate
}

// Decode reads path fully into memory, resampling when the file rate differs
// from the decoder rate.
func (d Decoder) Decode(path string) (*Clip, error) {
	if !IsSupported(path) {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer stream.Close()

	rate := d.rate()
	var source beep.Streamer = stream
	if format.SampleRate != rate {
		source = beep.Resample(resampleQuality, format.SampleRate, rate, stream)
	}

	clip, err := NewClip(filepath.Base(path), outputFormat(rate), source)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return clip, nil
}

func (d Decoder) rate() beep.SampleRate {
	if d.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return d.SampleRate
}
