// Package input delivers button presses from physical pins or a simulator.
package input

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Backend names accepted by the settings file.
const (
	BackendGPIO  = "gpio"
	BackendStdin = "stdin"
	BackendNone  = "none"
)

const queueSize = 16

// Press is one debounced "pressed" event.
type Press struct {
	Pin int
	At  time.Time
}

// Driver watches a claimed set of pins. Claim replaces the set; presses on
// pins outside it are never delivered.
type Driver interface {
	Claim(pins []int) error
	Release() error
	Presses() <-chan Press
	Run(ctx context.Context) error
	Close() error
}

// Open creates the driver for backend. stdin feeds the line simulator.
func Open(backend string, opts GPIOOptions, stdin io.Reader, logger *slog.Logger) (Driver, error) {
	switch backend {
	case "", BackendGPIO:
		return OpenGPIO(opts, logger)
	case BackendStdin:
		return NewLines(stdin, logger), nil
	case BackendNone:
		return &Null{}, nil
	default:
		return nil, fmt.Errorf("unknown input backend %q", backend)
	}
}

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// deliver hands p to the consumer without blocking the poller.
func deliver(ch chan<- Press, p Press, logger *slog.Logger) {
	select {
	case ch <- p:
	default:
		logger.Warn("press dropped, queue full", "pin", p.Pin)
	}
}

type pinSet map[int]struct{}

func newPinSet(pins []int) pinSet {
	set := make(pinSet, len(pins))
	for _, pin := range pins {
		set[pin] = struct{}{}
	}
	return set
}

func (s pinSet) has(pin int) bool {
	_, ok := s[pin]
	return ok
}
