package audio

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// ToneSpec is one sine segment of a synthesized cue.
type ToneSpec struct {
	FrequencyHz float64
	Duration    time.Duration
}

const toneGap = 22 * time.Millisecond

var (
	chimeParts = []ToneSpec{
		{FrequencyHz: 740, Duration: 65 * time.Millisecond},
		{FrequencyHz: 988, Duration: 90 * time.Millisecond},
	}
	errorParts = []ToneSpec{
		{FrequencyHz: 480, Duration: 75 * time.Millisecond},
		{FrequencyHz: 360, Duration: 90 * time.Millisecond},
	}
)

// Chime is the built-in cue confirming a profile switch.
func Chime(rate beep.SampleRate, volume float64) *Clip {
	return Tone("chime", rate, volume, chimeParts...)
}

// ErrorCue is the built-in cue for a failed switch or reload.
func ErrorCue(rate beep.SampleRate, volume float64) *Clip {
	return Tone("error", rate, volume, errorParts...)
}

// Tone renders parts back to back, separated by short silences.
func Tone(name string, rate beep.SampleRate, volume float64, parts ...ToneSpec) *Clip {
	gap := rate.N(toneGap)
	frames := make([][2]float64, 0)
	for i, part := range parts {
		frames = append(frames, synthesizeTone(rate, part, volume)...)
		if i < len(parts)-1 && gap > 0 {
			frames = append(frames, make([][2]float64, gap)...)
		}
	}
	return FromSamples(name, rate, frames)
}

func synthesizeTone(rate beep.SampleRate, part ToneSpec, volume float64) [][2]float64 {
	n := samplesForDuration(rate, part.Duration)
	if n <= 0 || part.FrequencyHz <= 0 || volume <= 0 {
		return nil
	}

	attackRelease := n / 10
	maxRamp := int(rate) / 200 // 5ms
	if attackRelease > maxRamp {
		attackRelease = maxRamp
	}
	if attackRelease < 1 {
		attackRelease = 1
	}

	frames := make([][2]float64, n)
	for i := 0; i < n; i++ {
		envelope := 1.0
		if i < attackRelease {
			envelope = float64(i) / float64(attackRelease)
		}
		releaseIndex := n - i - 1
		if releaseIndex < attackRelease {
			release := float64(releaseIndex) / float64(attackRelease)
			if release < envelope {
				envelope = release
			}
		}
		t := float64(i) / float64(rate)
		sample := math.Sin(2*math.Pi*part.FrequencyHz*t) * volume * envelope
		frames[i] = [2]float64{sample, sample}
	}
	return frames
}

func samplesForDuration(rate beep.SampleRate, d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(rate)))
}
