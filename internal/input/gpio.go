package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// MaxPin is the highest BCM pin on the 40-pin header.
const MaxPin = 27

// GPIOOptions tunes pin setup and debouncing.
type GPIOOptions struct {
	PullUp   bool
	Debounce time.Duration
	Poll     time.Duration
}

// pinIO is the hardware seam: configure a pin and read whether it is active.
type pinIO interface {
	Setup(pin int) error
	Active(pin int) bool
	Close() error
}

type debounced struct {
	stable    bool
	candidate bool
	since     time.Time
}

// GPIO polls claimed pins and emits a press when a pin settles on its
// active level for the debounce interval. A pin already held when claimed
// does not fire until it is released and pressed again.
type GPIO struct {
	io     pinIO
	opts   GPIOOptions
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pins    map[int]*debounced
	presses chan Press
}

// OpenGPIO maps the GPIO registers and returns a driver with no pins claimed.
func OpenGPIO(opts GPIOOptions, logger *slog.Logger) (*GPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	return newGPIO(rpioPins{pullUp: opts.PullUp}, opts, logger), nil
}

func newGPIO(io pinIO, opts GPIOOptions, logger *slog.Logger) *GPIO {
	if opts.Poll <= 0 {
		opts.Poll = 5 * time.Millisecond
	}
	return &GPIO{
		io:      io,
		opts:    opts,
		logger:  discardLogger(logger),
		now:     time.Now,
		pins:    map[int]*debounced{},
		presses: make(chan Press, queueSize),
	}
}

// Claim configures pins as inputs and makes them the watched set.
func (g *GPIO) Claim(pins []int) error {
	for _, pin := range pins {
		if pin < 0 || pin > MaxPin {
			return fmt.Errorf("gpio pin %d out of range 0-%d", pin, MaxPin)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	claimed := make(map[int]*debounced, len(pins))
	for _, pin := range pins {
		if err := g.io.Setup(pin); err != nil {
			return fmt.Errorf("setup gpio pin %d: %w", pin, err)
		}
		active := g.io.Active(pin)
		claimed[pin] = &debounced{stable: active, candidate: active, since: now}
	}
	g.pins = claimed
	return nil
}

// Release stops watching every pin.
func (g *GPIO) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins = map[int]*debounced{}
	return nil
}

// Presses is the debounced press stream.
func (g *GPIO) Presses() <-chan Press {
	return g.presses
}

// Run polls until ctx ends.
func (g *GPIO) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.poll()
		}
	}
}

// Close unmaps the GPIO registers.
func (g *GPIO) Close() error {
	return g.io.Close()
}

func (g *GPIO) poll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for pin, state := range g.pins {
		active := g.io.Active(pin)
		if active != state.candidate {
			state.candidate = active
			state.since = now
		}
		if state.candidate == state.stable || now.Sub(state.since) < g.opts.Debounce {
			continue
		}
		state.stable = state.candidate
		if state.stable {
			g.logger.Debug("button pressed", "pin", pin)
			deliver(g.presses, Press{Pin: pin, At: now}, g.logger)
		}
	}
}

type rpioPins struct {
	pullUp bool
}

func (r rpioPins) Setup(pin int) error {
	p := rpio.Pin(pin)
	p.Input()
	if r.pullUp {
		p.PullUp()
	} else {
		p.PullDown()
	}
	return nil
}

// Active maps the electrical level to "pressed": with pull-ups a button
// shorts the pin to ground.
func (r rpioPins) Active(pin int) bool {
	level := rpio.Pin(pin).Read()
	if r.pullUp {
		return level == rpio.Low
	}
	return level == rpio.High
}

func (r rpioPins) Close() error {
	return rpio.Close()
}
