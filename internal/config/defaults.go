package config

// Default returns the canonical appliance configuration used when no file is present.
func Default() Config {
	return Config{
		ProfilesDir: "config",
		Log: LogConfig{
			Dir:   "log",
			Level: "debug",
		},
		Audio: AudioConfig{
			Backend:    AudioBackendPulse,
			Device:     "default",
			SampleRate: 22050,
			BufferMS:   100,
		},
		Input: InputConfig{
			Backend:    InputBackendGPIO,
			PullUp:     true,
			DebounceMS: 50,
			PollMS:     5,
		},
		Cues: CueConfig{
			Synthesized: true,
			Volume:      0.2,
		},
		Watch: WatchConfig{
			Enable:     false,
			DebounceMS: 500,
		},
		Power: PowerConfig{},
	}
}
