// Package doctor runs readiness diagnostics for settings, profiles, audio, and input.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/config"
	"github.com/matteobonanomi/pizoo/internal/profile"
)

// gpioDevice is the memory-mapped GPIO node go-rpio opens first.
var gpioDevice = "/dev/gpiomem"

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run checks the loaded settings, every profile in the catalog, and the
// configured backends.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}
	checks = append(checks, CheckProfiles(cfg.Config.ProfilesDir)...)
	checks = append(checks, checkAudio(ctx, cfg.Config.Audio))
	checks = append(checks, checkInput(cfg.Config.Input))
	if len(cfg.Config.Power.ShutdownArgv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Power.ShutdownArgv, "power.shutdown_cmd"))
	}
	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("no file at %q, using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// CheckProfiles loads and validates every profile in dir, one check each.
func CheckProfiles(dir string) []Check {
	catalog, err := profile.Discover(dir)
	if err != nil {
		return []Check{{Name: "profiles", Pass: false, Message: err.Error()}}
	}

	checks := []Check{{
		Name:    "profiles",
		Pass:    true,
		Message: fmt.Sprintf("%d profile(s) in %s", catalog.Len(), catalog.Dir),
	}}
	for i := range catalog.Entries {
		checks = append(checks, checkProfile(catalog.Entries[i], catalog.Path(i)))
	}
	return checks
}

func checkProfile(name, path string) Check {
	check := Check{Name: "profile " + name}

	loaded, err := profile.Load(path)
	if err != nil {
		var loadErr *profile.LoadError
		if errors.As(err, &loadErr) {
			err = loadErr.Err
		}
		check.Message = err.Error()
		return check
	}

	if problems := profile.Validate(loaded.Profile); len(problems) > 0 {
		lines := make([]string, 0, len(problems))
		for _, problem := range problems {
			lines = append(lines, problem.String())
		}
		check.Message = strings.Join(lines, "; ")
		return check
	}

	check.Pass = true
	check.Message = fmt.Sprintf("%d button(s), %d animal(s)", len(loaded.Profile.Bindings), len(loaded.Profile.Animals()))
	if len(loaded.Warnings) > 0 {
		check.Message += " (" + strings.Join(loaded.Warnings, "; ") + ")"
	}
	return check
}

// checkAudio runs live sink selection for the pulse backend.
func checkAudio(ctx context.Context, cfg config.AudioConfig) Check {
	if cfg.Backend == config.AudioBackendSpeaker {
		return Check{Name: "audio", Pass: true, Message: "speaker backend, device not probed"}
	}

	selection, err := audio.SelectDevice(ctx, cfg.Device)
	if err != nil {
		return Check{Name: "audio", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio", Pass: true, Message: message}
}

func checkInput(cfg config.InputConfig) Check {
	if cfg.Backend != config.InputBackendGPIO {
		return Check{Name: "input", Pass: true, Message: cfg.Backend + " backend"}
	}
	if _, err := os.Stat(gpioDevice); err != nil {
		return Check{Name: "input", Pass: false, Message: fmt.Sprintf("gpio backend needs %s: %v", gpioDevice, err)}
	}
	return Check{Name: "input", Pass: true, Message: "gpio via " + gpioDevice}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
