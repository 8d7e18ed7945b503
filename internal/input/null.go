package input

import (
	"context"
	"sync"
)

// Null has no physical inputs; presses arrive only through the control socket.
type Null struct {
	mu   sync.Mutex
	pins []int
}

func (n *Null) Claim(pins []int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pins = append([]int(nil), pins...)
	return nil
}

func (n *Null) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pins = nil
	return nil
}

// Claimed returns the pins of the last Claim.
func (n *Null) Claimed() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.pins...)
}

// Presses never delivers.
func (n *Null) Presses() <-chan Press {
	return nil
}

func (n *Null) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (n *Null) Close() error {
	return nil
}
