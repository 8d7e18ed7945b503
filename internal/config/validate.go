package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.ProfilesDir) == "" {
		return nil, fmt.Errorf("profiles_dir must not be empty")
	}
	if strings.TrimSpace(cfg.Log.Dir) == "" {
		return nil, fmt.Errorf("log.dir must not be empty")
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Audio.Backend)) {
	case AudioBackendPulse, AudioBackendSpeaker:
	default:
		return nil, fmt.Errorf("audio.backend must be one of: %s, %s", AudioBackendPulse, AudioBackendSpeaker)
	}
	if cfg.Audio.SampleRate < 8000 || cfg.Audio.SampleRate > 192000 {
		return nil, fmt.Errorf("audio.sample_rate must be between 8000 and 192000")
	}
	if cfg.Audio.BufferMS <= 0 {
		return nil, fmt.Errorf("audio.buffer_ms must be > 0")
	}
	if cfg.Audio.BufferMS < 20 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("audio.buffer_ms=%d is very small; playback may stutter", cfg.Audio.BufferMS)})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Input.Backend)) {
	case InputBackendGPIO, InputBackendStdin, InputBackendNone:
	default:
		return nil, fmt.Errorf("input.backend must be one of: %s, %s, %s", InputBackendGPIO, InputBackendStdin, InputBackendNone)
	}
	if cfg.Input.PollMS <= 0 {
		return nil, fmt.Errorf("input.poll_ms must be > 0")
	}
	if cfg.Input.DebounceMS < 0 {
		return nil, fmt.Errorf("input.debounce_ms must be >= 0")
	}
	if cfg.Input.DebounceMS == 0 && strings.EqualFold(cfg.Input.Backend, InputBackendGPIO) {
		warnings = append(warnings, Warning{Message: "input.debounce_ms=0; mechanical buttons may trigger twice"})
	}

	if cfg.Cues.Volume < 0 || cfg.Cues.Volume > 1 {
		return nil, fmt.Errorf("cues.volume must be between 0.0 and 1.0")
	}
	if cfg.Watch.DebounceMS < 0 {
		return nil, fmt.Errorf("watch.debounce_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Power.ShutdownCmd) != "" && len(cfg.Power.ShutdownArgv) == 0 {
		return nil, fmt.Errorf("power.shutdown_cmd is configured but empty")
	}

	return warnings, nil
}

// ParseLevel maps a log.level value onto a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
}
