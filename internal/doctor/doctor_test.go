package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matteobonanomi/pizoo/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckProfilesMissingDir(t *testing.T) {
	checks := CheckProfiles(filepath.Join(t.TempDir(), "missing"))
	require.Len(t, checks, 1)
	require.False(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "no profiles found")
}

func TestCheckProfilesReportsEachProfile(t *testing.T) {
	root := t.TempDir()
	profiles := filepath.Join(root, "config")
	sounds := filepath.Join(root, "sounds")
	require.NoError(t, os.MkdirAll(profiles, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(sounds, "cat"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "log"), 0o755))

	good := "log_dir: " + filepath.Join(root, "log") + "\nsounds_dir: " + sounds + "\nbuttons:\n  17: cat\n"
	broken := "log_dir: " + filepath.Join(root, "log") + "\nsounds_dir: " + sounds + "\nbuttons:\n  17: cow\n"
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "a.yaml"), []byte(good), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "b.yaml"), []byte(broken), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "c.yaml"), []byte("buttons:\n  -3: cat\n"), 0o600))

	checks := CheckProfiles(profiles)
	require.Len(t, checks, 4)

	require.True(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "3 profile(s)")

	require.Equal(t, "profile a.yaml", checks[1].Name)
	require.True(t, checks[1].Pass, checks[1].Message)
	require.Contains(t, checks[1].Message, "1 button(s), 1 animal(s)")

	require.Equal(t, "profile b.yaml", checks[2].Name)
	require.False(t, checks[2].Pass)
	require.Contains(t, checks[2].Message, "Missing directory: sound folder for cow")

	require.Equal(t, "profile c.yaml", checks[3].Name)
	require.False(t, checks[3].Pass)
}

func TestCheckInput(t *testing.T) {
	check := checkInput(config.InputConfig{Backend: config.InputBackendStdin})
	require.True(t, check.Pass)

	gpioDevice = filepath.Join(t.TempDir(), "gpiomem")
	t.Cleanup(func() { gpioDevice = "/dev/gpiomem" })

	check = checkInput(config.InputConfig{Backend: config.InputBackendGPIO})
	require.False(t, check.Pass)

	require.NoError(t, os.WriteFile(gpioDevice, nil, 0o600))
	check = checkInput(config.InputConfig{Backend: config.InputBackendGPIO})
	require.True(t, check.Pass)
}

func TestCheckAudioSpeakerSkipsProbe(t *testing.T) {
	check := checkAudio(context.Background(), config.AudioConfig{Backend: config.AudioBackendSpeaker})
	require.True(t, check.Pass)
}

func TestCheckAudioPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	check := checkAudio(context.Background(), config.AudioConfig{Backend: config.AudioBackendPulse, Device: "default"})
	require.False(t, check.Pass)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "power.shutdown_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestRunIncludesPowerCommand(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	cfg := config.Default()
	cfg.ProfilesDir = t.TempDir()
	cfg.Input.Backend = config.InputBackendNone
	cfg.Power.ShutdownArgv = []string{"sh", "-c", "true"}

	report := Run(context.Background(), config.Loaded{Path: "/tmp/pizoo.yaml", Config: cfg})
	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "no file at \"/tmp/pizoo.yaml\"")
	require.Contains(t, text, "[FAIL] profiles")
	require.Contains(t, text, "[OK] sh")
}
