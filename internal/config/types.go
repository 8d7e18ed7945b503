// Package config resolves, parses, validates, and defaults pizoo appliance settings.
package config

// Config is the fully materialized appliance configuration used by pizoo.
//
// Button/sound mappings live in profile files (see package profile); this
// file only describes how the appliance talks to its hardware.
type Config struct {
	ProfilesDir string      `yaml:"profiles_dir"`
	Log         LogConfig   `yaml:"log"`
	Audio       AudioConfig `yaml:"audio"`
	Input       InputConfig `yaml:"input"`
	Cues        CueConfig   `yaml:"cues"`
	Watch       WatchConfig `yaml:"watch"`
	Power       PowerConfig `yaml:"power"`
}

// LogConfig controls where session logs are written and how verbose they are.
type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// AudioConfig selects the output backend and the format clips are decoded to.
type AudioConfig struct {
	Backend    string `yaml:"backend"`
	Device     string `yaml:"device"`
	SampleRate int    `yaml:"sample_rate"`
	BufferMS   int    `yaml:"buffer_ms"`
}

// InputConfig selects the button driver and its electrical behavior.
type InputConfig struct {
	Backend    string `yaml:"backend"`
	PullUp     bool   `yaml:"pull_up"`
	DebounceMS int    `yaml:"debounce_ms"`
	PollMS     int    `yaml:"poll_ms"`
}

// CueConfig controls the built-in synthesized feedback tones.
type CueConfig struct {
	Synthesized bool    `yaml:"synthesized"`
	Volume      float64 `yaml:"volume"`
}

// WatchConfig controls automatic profile reload on filesystem changes.
type WatchConfig struct {
	Enable     bool `yaml:"enable"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// PowerConfig controls what happens to the host after the shutdown cue.
type PowerConfig struct {
	ShutdownCmd  string   `yaml:"shutdown_cmd"`
	ShutdownArgv []string `yaml:"-"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

const (
	AudioBackendPulse   = "pulse"
	AudioBackendSpeaker = "speaker"

	InputBackendGPIO  = "gpio"
	InputBackendStdin = "stdin"
	InputBackendNone  = "none"
)
