package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidConfig(t *testing.T) {
	input := `
# bench unit in the workshop
profiles_dir: /srv/pizoo/profiles
log:
  dir: /var/log/pizoo
  level: info
audio:
  backend: speaker
  sample_rate: 44100
input:
  backend: stdin
  debounce_ms: 30
power:
  shutdown_cmd: "sudo shutdown -h now"
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "/srv/pizoo/profiles", cfg.ProfilesDir)
	require.Equal(t, "/var/log/pizoo", cfg.Log.Dir)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, AudioBackendSpeaker, cfg.Audio.Backend)
	require.Equal(t, 44100, cfg.Audio.SampleRate)
	require.Equal(t, InputBackendStdin, cfg.Input.Backend)
	require.Equal(t, 30, cfg.Input.DebounceMS)
	require.Equal(t, []string{"sudo", "shutdown", "-h", "now"}, cfg.Power.ShutdownArgv)
}

func TestParseKeepsDefaultsForAbsentKeys(t *testing.T) {
	cfg, _, err := Parse("audio:\n  device: alsa_output.usb\n", Default())
	require.NoError(t, err)

	want := Default()
	want.Audio.Device = "alsa_output.usb"
	require.Equal(t, want, cfg)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("audio:\n  volume: 11\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "volume")
}

func TestParseMalformedYAMLFails(t *testing.T) {
	_, _, err := Parse("audio: [unclosed", Default())
	require.Error(t, err)
}

func TestParseShutdownCmdUnterminatedQuote(t *testing.T) {
	_, _, err := Parse(`power: { shutdown_cmd: "sudo 'poweroff" }`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "power.shutdown_cmd")
}

func TestParseRunsValidation(t *testing.T) {
	_, _, err := Parse("input:\n  backend: keyboard\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "input.backend")
}
