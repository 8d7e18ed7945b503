// Package session owns the active profile, its sound library, and its input
// bindings, and serializes every press, switch, and shutdown on one loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/binding"
	"github.com/matteobonanomi/pizoo/internal/fsm"
	"github.com/matteobonanomi/pizoo/internal/input"
	"github.com/matteobonanomi/pizoo/internal/library"
	"github.com/matteobonanomi/pizoo/internal/profile"
)

// Stop reasons reported in Result.
const (
	ReasonSignal         = "signal"
	ReasonShutdownButton = "shutdown_button"
	ReasonStopRequest    = "stop_request"
)

// Input is the driver surface the controller consumes.
type Input interface {
	binding.Claimer
	Presses() <-chan input.Press
}

// Player is the playback surface the controller consumes.
type Player interface {
	PlayRandom(lib *library.Library, animal string) *audio.Clip
	PlayOne(clip *audio.Clip, label string) bool
	PlayAndWait(ctx context.Context, clip *audio.Clip, label string) bool
	Stop()
	Busy() bool
}

// Config holds the controller's static settings.
type Config struct {
	ProfilesDir string
	// Synthesized enables the built-in error cue and the fallback switch chime.
	Synthesized bool
	CueVolume   float64
	SampleRate  beep.SampleRate
}

// Result is the outcome of one Run.
type Result struct {
	State      fsm.State
	Reason     string
	Profile    string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is a read-only view of the active profile.
type Snapshot struct {
	State   fsm.State
	Index   int
	Count   int
	Profile string
	Path    string
	Library *library.Library
	Table   binding.Table
}

// Option configures a Controller.
type Option func(*Controller)

// WithPowerOff runs fn after the shutdown cue when shutdown is requested by
// button or control command.
func WithPowerOff(fn func(context.Context) error) Option {
	return func(c *Controller) {
		c.powerOff = fn
	}
}

// OnActivate calls fn every time a profile becomes active.
func OnActivate(fn func(profile.Profile)) Option {
	return func(c *Controller) {
		c.onActivate = fn
	}
}

var errAlreadyBooted = errors.New("session already booted")

type active struct {
	index   int
	loaded  profile.Loaded
	library *library.Library
	table   binding.Table
}

type requestKind int

const (
	requestSwitch requestKind = iota + 1
	requestReload
	requestPress
	requestStop
)

type request struct {
	kind  requestKind
	pin   int
	reply chan Response
}

// Response answers a queued request.
type Response struct {
	OK      bool
	Message string
	Err     error
}

// Controller is the session state owner. Boot brings up the first profile;
// Run then consumes presses and requests until shutdown or cancellation.
type Controller struct {
	cfg        Config
	logger     *slog.Logger
	input      Input
	binder     *binding.Binder
	player     Player
	decoder    library.Decoder
	powerOff   func(context.Context) error
	onActivate func(profile.Profile)
	now        func() time.Time

	errorCue *audio.Clip
	chime    *audio.Clip

	mu          sync.RWMutex
	state       fsm.State
	catalog     profile.Catalog
	active      active
	switchStart time.Time
	switchEnd   time.Time

	requests chan request
}

// NewController constructs a controller in the booting state.
func NewController(cfg Config, logger *slog.Logger, in Input, player Player, decoder library.Decoder, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}

	c := &Controller{
		cfg:      cfg,
		logger:   logger,
		input:    in,
		binder:   binding.NewBinder(in),
		player:   player,
		decoder:  decoder,
		now:      time.Now,
		state:    fsm.StateBooting,
		requests: make(chan request, 8),
	}
	if cfg.Synthesized {
		c.errorCue = audio.ErrorCue(cfg.SampleRate, cfg.CueVolume)
		c.chime = audio.Chime(cfg.SampleRate, cfg.CueVolume)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the active profile view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		State:   c.state,
		Index:   c.active.index,
		Count:   c.catalog.Len(),
		Profile: c.active.loaded.Profile.Name,
		Path:    c.active.loaded.Path,
		Library: c.active.library,
		Table:   c.active.table,
	}
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Boot discovers the catalog and activates its first profile. Every failure
// is fatal and returned as a *BootError; asset problems are all reported.
func (c *Controller) Boot(ctx context.Context) error {
	if state := c.State(); state != fsm.StateBooting {
		return fmt.Errorf("boot from state %s: %w", state, errAlreadyBooted)
	}

	catalog, err := profile.Discover(c.cfg.ProfilesDir)
	if err != nil {
		return c.bootFailed(&BootError{Stage: StageCatalog, Err: err})
	}
	c.logger.Info("catalog discovered", "dir", catalog.Dir, "count", catalog.Len(), "profiles", catalog.Entries)

	loaded, err := profile.Load(catalog.Path(0))
	if err != nil {
		return c.bootFailed(&BootError{Stage: StageLoad, Err: err})
	}
	c.logLoaded(loaded)

	if problems := profile.Validate(loaded.Profile); len(problems) > 0 {
		for _, problem := range problems {
			c.logger.Error(problem.String(), "profile", loaded.Profile.Name)
		}
		return c.bootFailed(&BootError{Stage: StageValidate, Problems: problems})
	}

	lib, err := library.Build(ctx, loaded.Profile, c.decoder, c.logger)
	if err != nil {
		return c.bootFailed(&BootError{Stage: StageLibrary, Err: err})
	}

	table := c.buildTable(loaded.Profile)
	if err := c.binder.Bind(table); err != nil {
		return c.bootFailed(&BootError{Stage: StageBind, Err: err})
	}

	c.mu.Lock()
	c.catalog = catalog
	c.active = active{index: 0, loaded: loaded, library: lib, table: table}
	c.mu.Unlock()

	_ = c.transition(fsm.EventBooted)
	c.logger.Info("session ready", "profile", loaded.Profile.Name, "animals", lib.Len(), "pins", table.Pins())

	c.player.PlayOne(lib.Cue(library.CueStartup), "startup")
	c.activated(loaded.Profile)
	return nil
}

func (c *Controller) bootFailed(err *BootError) error {
	c.logger.Error("startup aborted", "stage", err.Stage, "error", err.Error())
	return err
}

// Run consumes presses and requests until a shutdown press, a stop request,
// or ctx cancellation. The session must have booted.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: c.now()}
	finish := func(reason string, err error) Result {
		result.State = c.State()
		result.Reason = reason
		result.Profile = c.Snapshot().Profile
		result.Err = err
		result.FinishedAt = c.now()
		return result
	}

	if state := c.State(); state != fsm.StateReady {
		return finish("", fmt.Errorf("session not ready (state %s)", state))
	}

	presses := c.input.Presses()
	for {
		select {
		case <-ctx.Done():
			c.terminate()
			return finish(ReasonSignal, nil)
		case press := <-presses:
			if c.handlePress(ctx, press) {
				c.shutdown(ctx)
				return finish(ReasonShutdownButton, nil)
			}
		case req := <-c.requests:
			if c.handleRequest(ctx, req) {
				c.shutdown(ctx)
				return finish(ReasonStopRequest, nil)
			}
		}
	}
}

// handlePress dispatches one press and reports whether it asked for shutdown.
func (c *Controller) handlePress(ctx context.Context, press input.Press) bool {
	if c.inSwitchWindow(press.At) {
		c.logger.Debug("press during profile switch ignored", "pin", press.Pin)
		return false
	}

	action, ok := c.binder.Dispatch(press.Pin)
	if !ok {
		c.logger.Debug("press on unbound pin ignored", "pin", press.Pin)
		return false
	}
	c.logger.Debug("button pressed", "pin", press.Pin, "action", action.Kind.String())

	switch action.Kind {
	case binding.PlayAnimal:
		c.mu.RLock()
		lib := c.active.library
		c.mu.RUnlock()
		c.player.PlayRandom(lib, action.Animal)
	case binding.AdvanceProfile:
		_ = c.switchProfile(ctx, true)
	case binding.Shutdown:
		return true
	}
	return false
}

func (c *Controller) handleRequest(ctx context.Context, req request) bool {
	reply := func(resp Response) {
		if req.reply != nil {
			req.reply <- resp
		}
	}

	switch req.kind {
	case requestSwitch, requestReload:
		advance := req.kind == requestSwitch
		if err := c.switchProfile(ctx, advance); err != nil {
			reply(Response{OK: false, Err: err})
			return false
		}
		reply(Response{OK: true, Message: "profile " + c.Snapshot().Profile + " active"})
	case requestPress:
		if _, ok := c.binder.Dispatch(req.pin); !ok {
			reply(Response{OK: false, Err: fmt.Errorf("pin %d is not bound", req.pin)})
			return false
		}
		shutdown := c.handlePress(ctx, input.Press{Pin: req.pin, At: c.now()})
		reply(Response{OK: true, Message: fmt.Sprintf("pin %d pressed", req.pin)})
		return shutdown
	case requestStop:
		reply(Response{OK: true, Message: "shutting down"})
		return true
	default:
		reply(Response{OK: false, Err: fmt.Errorf("unknown request %d", req.kind)})
	}
	return false
}

func (c *Controller) inSwitchWindow(at time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.switchStart.IsZero() {
		return false
	}
	return !at.Before(c.switchStart) && !at.After(c.switchEnd)
}

// switchProfile activates the next catalog entry (or re-activates the
// current one when advance is false). The next profile is fully built before
// the bindings are swapped; any failure leaves the previous profile active.
func (c *Controller) switchProfile(ctx context.Context, advance bool) error {
	if err := c.transition(fsm.EventSwitch); err != nil {
		return err
	}
	started := c.now()

	c.mu.RLock()
	prev := c.active
	catalog := c.catalog
	c.mu.RUnlock()

	index := prev.index
	verb := "reload"
	if advance {
		index = profile.Advance(prev.index, catalog.Len())
		verb = "switch"
	}
	path := catalog.Path(index)
	c.logger.Info("profile "+verb+" started", "from", prev.loaded.Profile.Name, "to", catalog.Entries[index])

	err := c.activate(ctx, index, path, advance)
	c.mu.Lock()
	c.switchStart, c.switchEnd = started, c.now()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("profile "+verb+" failed; keeping previous profile", "profile", prev.loaded.Profile.Name, "path", path, "error", err.Error())
		_ = c.transition(fsm.EventSwitchFailed)
		if c.errorCue != nil {
			c.player.PlayOne(c.errorCue, "error")
		}
		return err
	}
	return c.transition(fsm.EventSwitched)
}

func (c *Controller) activate(ctx context.Context, index int, path string, advance bool) error {
	loaded, err := profile.Load(path)
	if err != nil {
		return err
	}
	c.logLoaded(loaded)

	for _, problem := range profile.Validate(loaded.Profile) {
		c.logger.Warn(problem.String(), "profile", loaded.Profile.Name)
	}

	lib, err := library.Build(ctx, loaded.Profile, c.decoder, c.logger)
	if err != nil {
		return err
	}

	table := c.buildTable(loaded.Profile)
	if err := c.binder.Rebind(table); err != nil {
		return err
	}

	c.mu.Lock()
	c.active = active{index: index, loaded: loaded, library: lib, table: table}
	c.mu.Unlock()

	c.logger.Info("profile active", "profile", loaded.Profile.Name, "index", index, "animals", lib.Len(), "pins", table.Pins())

	if advance {
		cue := lib.Cue(library.CueSwitch)
		if cue == nil {
			cue = c.chime
		}
		c.player.PlayOne(cue, "switch")
	}
	c.activated(loaded.Profile)
	return nil
}

// shutdown plays the shutdown cue to completion, releases inputs, and runs
// the power-off hook.
func (c *Controller) shutdown(ctx context.Context) {
	if err := c.transition(fsm.EventShutdown); err != nil {
		c.logger.Warn("shutdown transition", "error", err.Error())
	}
	c.logger.Info("shutting down", "profile", c.Snapshot().Profile)

	c.mu.RLock()
	lib := c.active.library
	c.mu.RUnlock()
	if cue := lib.Cue(library.CueShutdown); cue != nil {
		c.player.PlayAndWait(ctx, cue, "shutdown")
	}

	if err := c.binder.Unbind(); err != nil {
		c.logger.Warn("unbind inputs", "error", err.Error())
	}

	if c.powerOff != nil {
		if err := c.powerOff(ctx); err != nil {
			c.logger.Error("power off failed", "error", err.Error())
		}
	}
}

// terminate is the signal path: silence and release, no cue.
func (c *Controller) terminate() {
	_ = c.transition(fsm.EventShutdown)
	c.logger.Info("termination requested")
	c.player.Stop()
	if err := c.binder.Unbind(); err != nil {
		c.logger.Warn("unbind inputs", "error", err.Error())
	}
}

func (c *Controller) buildTable(p profile.Profile) binding.Table {
	table, warnings := binding.Build(p)
	for _, warning := range warnings {
		c.logger.Warn("control pin conflict", "profile", p.Name, "detail", warning)
	}
	return table
}

func (c *Controller) logLoaded(loaded profile.Loaded) {
	for _, warning := range loaded.Warnings {
		c.logger.Warn("profile warning", "profile", loaded.Profile.Name, "detail", warning)
	}
	c.logger.Info("profile loaded",
		"profile", loaded.Profile.Name,
		"path", loaded.Path,
		"sounds_dir", loaded.Profile.SoundsDirectory,
		"buttons", len(loaded.Profile.Bindings),
	)
}

func (c *Controller) activated(p profile.Profile) {
	if c.onActivate != nil {
		c.onActivate(p)
	}
}
