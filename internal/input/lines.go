package input

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lines reads pin numbers, one per line, and turns each into a press. It
// stands in for buttons on a bench without hardware.
type Lines struct {
	r      io.Reader
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pins    pinSet
	presses chan Press
}

// NewLines creates a simulator reading from r.
func NewLines(r io.Reader, logger *slog.Logger) *Lines {
	return &Lines{
		r:       r,
		logger:  discardLogger(logger),
		now:     time.Now,
		pins:    pinSet{},
		presses: make(chan Press, queueSize),
	}
}

// Claim replaces the accepted pin set.
func (l *Lines) Claim(pins []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pins = newPinSet(pins)
	return nil
}

// Release accepts no pins until the next Claim.
func (l *Lines) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pins = pinSet{}
	return nil
}

// Presses is the simulated press stream.
func (l *Lines) Presses() <-chan Press {
	return l.presses
}

// Run reads until EOF or ctx ends.
func (l *Lines) Run(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			l.handle(line)
		}
	}
}

// Close is a no-op; the reader belongs to the caller.
func (l *Lines) Close() error {
	return nil
}

func (l *Lines) handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	pin, err := strconv.Atoi(line)
	if err != nil {
		l.logger.Warn("ignoring simulator input", "line", line)
		return
	}

	l.mu.Lock()
	claimed := l.pins.has(pin)
	l.mu.Unlock()
	if !claimed {
		l.logger.Debug("press on unbound pin ignored", "pin", pin)
		return
	}
	deliver(l.presses, Press{Pin: pin, At: l.now()}, l.logger)
}
