// Package power runs the host shutdown command after the shutdown cue.
package power

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds the shutdown command.
const DefaultTimeout = 15 * time.Second

// Runner executes a fixed argv.
type Runner struct {
	Argv    []string
	Timeout time.Duration
}

// Enabled reports whether a command is configured.
func (r Runner) Enabled() bool {
	return len(r.Argv) > 0
}

// Run executes the command, returning its combined output in the error on
// failure. An empty argv is a no-op.
func (r Runner) Run(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// The shutdown cue may have been cut by cancellation; the command still runs.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Argv[0], r.Argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", r.Argv[0], timeout)
		}
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", r.Argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", r.Argv[0], err)
	}
	return nil
}
