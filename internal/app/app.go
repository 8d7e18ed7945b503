// Package app maps parsed invocations onto the daemon and its control client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/cli"
	"github.com/matteobonanomi/pizoo/internal/config"
	"github.com/matteobonanomi/pizoo/internal/doctor"
	"github.com/matteobonanomi/pizoo/internal/input"
	"github.com/matteobonanomi/pizoo/internal/ipc"
	"github.com/matteobonanomi/pizoo/internal/logging"
	"github.com/matteobonanomi/pizoo/internal/playback"
	"github.com/matteobonanomi/pizoo/internal/power"
	"github.com/matteobonanomi/pizoo/internal/profile"
	"github.com/matteobonanomi/pizoo/internal/session"
	"github.com/matteobonanomi/pizoo/internal/version"
	"github.com/matteobonanomi/pizoo/internal/watch"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const playSlack = 2 * time.Second

// OutputOpener creates the audio output for run and play.
type OutputOpener func(ctx context.Context, opts audio.Options, logger *slog.Logger) (audio.Output, error)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Stdin feeds the line simulator when input.backend is stdin.
	Stdin      io.Reader
	Logger     *slog.Logger
	OpenOutput OutputOpener
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	inv, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText())
		return ExitUsage
	}

	if inv.ShowHelp {
		fmt.Fprint(r.Stdout, inv.Help)
		return ExitOK
	}

	switch inv.Command {
	case cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return ExitOK
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus, cli.CommandSwitch, cli.CommandReload, cli.CommandPress, cli.CommandStop:
		return r.commandControl(ctx, inv)
	}

	cfgLoaded, err := config.Load(inv.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	if inv.ProfilesDir != "" {
		cfgLoaded.Config.ProfilesDir = inv.ProfilesDir
	}
	cfgLoaded.Config.ProfilesDir = profile.Resolve(cfgLoaded.Config.ProfilesDir)
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", formatWarning(w))
	}

	switch inv.Command {
	case cli.CommandCheck:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return ExitOK
		}
		return ExitFailure
	case cli.CommandPlay:
		return r.commandPlay(ctx, cfgLoaded.Config, inv.File)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", inv.Command)
		return ExitUsage
	}
}

func formatWarning(w config.Warning) string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

func (r Runner) openOutput(ctx context.Context, cfg config.AudioConfig, logger *slog.Logger) (audio.Output, error) {
	opener := r.OpenOutput
	if opener == nil {
		opener = audio.Open
	}
	return opener(ctx, audio.Options{
		Backend:    cfg.Backend,
		Device:     cfg.Device,
		SampleRate: beep.SampleRate(cfg.SampleRate),
		Buffer:     time.Duration(cfg.BufferMS) * time.Millisecond,
	}, logger)
}

func (r Runner) commandRun(ctx context.Context, cfgLoaded config.Loaded) int {
	cfg := cfgLoaded.Config

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelDebug
	}
	logRuntime, err := logging.New(logging.Options{
		Dir:     profile.Resolve(cfg.Log.Dir),
		Level:   level,
		Console: r.Stdout,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return ExitFailure
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}
	logger = logger.With("session_id", uuid.NewString())
	for _, w := range cfgLoaded.Warnings {
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	logger.Info("daemon start",
		"version", version.Version,
		"config", cfgLoaded.Path,
		"profiles_dir", cfg.ProfilesDir,
		"log", logRuntime.Path,
		"audio_backend", cfg.Audio.Backend,
		"input_backend", cfg.Input.Backend,
	)

	socketPath := ipc.RuntimeSocketPath()
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		return r.fail(logger, "acquire control socket", err)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	out, err := r.openOutput(ctx, cfg.Audio, logger)
	if err != nil {
		return r.fail(logger, "open audio output", err)
	}
	defer func() { _ = out.Close() }()

	driver, err := input.Open(cfg.Input.Backend, input.GPIOOptions{
		PullUp:   cfg.Input.PullUp,
		Debounce: time.Duration(cfg.Input.DebounceMS) * time.Millisecond,
		Poll:     time.Duration(cfg.Input.PollMS) * time.Millisecond,
	}, r.Stdin, logger)
	if err != nil {
		return r.fail(logger, "open input", err)
	}
	defer func() { _ = driver.Close() }()

	var (
		controller *session.Controller
		watcher    *watch.Watcher
	)
	opts := []session.Option{}
	if cfg.Watch.Enable {
		watcher, err = watch.New(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, func() { controller.Reload() }, logger)
		if err != nil {
			return r.fail(logger, "start watcher", err)
		}
		defer func() { _ = watcher.Close() }()
		opts = append(opts, session.OnActivate(func(p profile.Profile) {
			watcher.Set(watch.Paths(cfg.ProfilesDir, p))
		}))
	}
	if runner := (power.Runner{Argv: cfg.Power.ShutdownArgv}); runner.Enabled() {
		opts = append(opts, session.WithPowerOff(runner.Run))
	}

	sampleRate := beep.SampleRate(cfg.Audio.SampleRate)
	controller = session.NewController(
		session.Config{
			ProfilesDir: cfg.ProfilesDir,
			Synthesized: cfg.Cues.Synthesized,
			CueVolume:   cfg.Cues.Volume,
			SampleRate:  sampleRate,
		},
		logger,
		driver,
		playback.New(out, logger),
		audio.Decoder{SampleRate: sampleRate},
		opts...,
	)

	if err := controller.Boot(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		var bootErr *session.BootError
		if errors.As(err, &bootErr) {
			for _, problem := range bootErr.Problems {
				fmt.Fprintf(r.Stderr, "  %s\n", problem)
			}
		}
		return ExitFailure
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return driver.Run(gctx) })
	g.Go(func() error { return ipc.Serve(gctx, listener, controller) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	result := controller.Run(gctx)
	cancel()
	waitErr := g.Wait()
	logSessionResult(logger, result)

	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return ExitFailure
	}
	if waitErr != nil {
		return r.fail(logger, "background task", waitErr)
	}
	return ExitOK
}

func (r Runner) fail(logger *slog.Logger, what string, err error) int {
	logger.Error(what+" failed", "error", err.Error())
	fmt.Fprintf(r.Stderr, "error: %s: %v\n", what, err)
	return ExitFailure
}

func (r Runner) commandControl(ctx context.Context, inv cli.Invocation) int {
	client := ipc.Client{Path: ipc.RuntimeSocketPath()}
	req := ipc.Request{Command: string(inv.Command)}
	switch inv.Command {
	case cli.CommandSwitch, cli.CommandReload, cli.CommandStop:
		client.Timeout = ipc.SwitchTimeout
	case cli.CommandPress:
		pin := inv.Pin
		req.Pin = &pin
	}

	resp, err := client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, ipc.ErrNotRunning) && inv.Command == cli.CommandStatus {
			fmt.Fprintln(r.Stdout, "stopped")
			return ExitOK
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return ExitFailure
	}

	if inv.Command == cli.CommandStatus {
		line := resp.State
		if resp.Profile != "" {
			line += " " + resp.Profile
		}
		if resp.Message != "" {
			line += " (" + resp.Message + ")"
		}
		fmt.Fprintln(r.Stdout, line)
		return ExitOK
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return ExitOK
}

func (r Runner) commandPlay(ctx context.Context, cfg config.Config, path string) int {
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	clip, err := audio.Decoder{SampleRate: beep.SampleRate(cfg.Audio.SampleRate)}.Decode(profile.Resolve(path))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitFailure
	}

	out, err := r.openOutput(ctx, cfg.Audio, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: open audio output: %v\n", err)
		return ExitFailure
	}
	defer func() { _ = out.Close() }()

	if err := audio.PlayAndWait(ctx, out, clip, clip.Duration()+playSlack); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	fmt.Fprintf(r.Stdout, "played %s (%s)\n", clip.Name, clip.Duration().Round(time.Millisecond))
	return ExitOK
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ExitFailure
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return ExitFailure
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}
	return ExitOK
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"reason", result.Reason,
		"profile", result.Profile,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
