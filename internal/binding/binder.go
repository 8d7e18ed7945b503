package binding

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyBound reports Bind without a prior Unbind.
var ErrAlreadyBound = errors.New("inputs already bound")

// Claimer is the input side the binder attaches to.
type Claimer interface {
	Claim(pins []int) error
	Release() error
}

// Binder holds the one active table and keeps the input driver's claimed
// pins in step with it.
type Binder struct {
	input Claimer

	mu    sync.Mutex
	table Table
	bound bool
}

// NewBinder creates a binder over input.
func NewBinder(input Claimer) *Binder {
	return &Binder{input: input}
}

// Bind claims every pin in table and makes it the dispatch table.
func (b *Binder) Bind(table Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bound {
		return ErrAlreadyBound
	}
	if err := b.input.Claim(table.Pins()); err != nil {
		return fmt.Errorf("claim pins: %w", err)
	}
	b.table = table
	b.bound = true
	return nil
}

// Unbind releases every claimed pin. It is safe to call when nothing is bound.
func (b *Binder) Unbind() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return nil
	}
	b.table = nil
	b.bound = false
	if err := b.input.Release(); err != nil {
		return fmt.Errorf("release pins: %w", err)
	}
	return nil
}

// Rebind swaps the active table for next. If claiming next fails, the
// previous table is claimed again and stays active.
func (b *Binder) Rebind(next Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, wasBound := b.table, b.bound
	if wasBound {
		if err := b.input.Release(); err != nil {
			return fmt.Errorf("release pins: %w", err)
		}
		b.table, b.bound = nil, false
	}

	if err := b.input.Claim(next.Pins()); err != nil {
		claimErr := fmt.Errorf("claim pins: %w", err)
		if wasBound {
			if rerr := b.input.Claim(prev.Pins()); rerr != nil {
				return errors.Join(claimErr, fmt.Errorf("restore pins: %w", rerr))
			}
			b.table, b.bound = prev, true
		}
		return claimErr
	}

	b.table, b.bound = next, true
	return nil
}

// Dispatch resolves pin against the active table. Unbound pins and presses
// while nothing is bound report false.
func (b *Binder) Dispatch(pin int) (Action, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return Action{}, false
	}
	return b.table.Lookup(pin)
}

// Table returns the active table, or nil when unbound.
func (b *Binder) Table() Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.table
}
