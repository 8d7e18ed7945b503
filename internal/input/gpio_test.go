package input

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePins struct {
	mu       sync.Mutex
	levels   map[int]bool
	setup    []int
	setupErr error
	closed   bool
}

func newFakePins() *fakePins {
	return &fakePins{levels: map[int]bool{}}
}

func (f *fakePins) Setup(pin int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setupErr != nil {
		return f.setupErr
	}
	f.setup = append(f.setup, pin)
	return nil
}

func (f *fakePins) Active(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin]
}

func (f *fakePins) Close() error {
	f.closed = true
	return nil
}

func (f *fakePins) set(pin int, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = active
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGPIO(pins *fakePins) (*GPIO, *clock) {
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	g := newGPIO(pins, GPIOOptions{PullUp: true, Debounce: 50 * time.Millisecond, Poll: time.Millisecond}, nil)
	g.now = clk.Now
	return g, clk
}

func drain(g *GPIO) []Press {
	var out []Press
	for {
		select {
		case p := <-g.Presses():
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestGPIOPressAfterDebounce(t *testing.T) {
	pins := newFakePins()
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{17}))
	require.Equal(t, []int{17}, pins.setup)

	pins.set(17, true)
	g.poll()
	require.Empty(t, drain(g))

	clk.advance(30 * time.Millisecond)
	g.poll()
	require.Empty(t, drain(g))

	clk.advance(25 * time.Millisecond)
	g.poll()
	presses := drain(g)
	require.Len(t, presses, 1)
	require.Equal(t, 17, presses[0].Pin)
	require.Equal(t, clk.now, presses[0].At)

	clk.advance(time.Second)
	g.poll()
	require.Empty(t, drain(g), "holding the button fires once")
}

func TestGPIOBounceIsIgnored(t *testing.T) {
	pins := newFakePins()
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{4}))

	for range 5 {
		pins.set(4, true)
		g.poll()
		clk.advance(10 * time.Millisecond)
		pins.set(4, false)
		g.poll()
		clk.advance(10 * time.Millisecond)
	}
	require.Empty(t, drain(g))
}

func TestGPIOReleaseAndPressAgain(t *testing.T) {
	pins := newFakePins()
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{4}))

	press := func() {
		pins.set(4, true)
		g.poll()
		clk.advance(60 * time.Millisecond)
		g.poll()
		pins.set(4, false)
		g.poll()
		clk.advance(60 * time.Millisecond)
		g.poll()
	}
	press()
	press()
	require.Len(t, drain(g), 2)
}

func TestGPIOHeldAtClaimDoesNotFire(t *testing.T) {
	pins := newFakePins()
	pins.set(5, true)
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{5}))

	clk.advance(time.Second)
	g.poll()
	require.Empty(t, drain(g))
}

func TestGPIOReleasedPinsDoNotFire(t *testing.T) {
	pins := newFakePins()
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{5, 6}))
	require.NoError(t, g.Release())

	pins.set(5, true)
	g.poll()
	clk.advance(time.Second)
	g.poll()
	require.Empty(t, drain(g))

	require.NoError(t, g.Claim([]int{6}))
	pins.set(6, true)
	g.poll()
	clk.advance(time.Second)
	g.poll()
	presses := drain(g)
	require.Len(t, presses, 1)
	require.Equal(t, 6, presses[0].Pin)
}

func TestGPIOClaimValidatesPins(t *testing.T) {
	pins := newFakePins()
	g, _ := newTestGPIO(pins)

	require.Error(t, g.Claim([]int{3, 40}))
	require.Error(t, g.Claim([]int{-1}))
	require.Empty(t, pins.setup)

	pins.setupErr = errors.New("permission denied")
	err := g.Claim([]int{3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission denied")
}

func TestGPIOFullQueueDropsPress(t *testing.T) {
	pins := newFakePins()
	g, clk := newTestGPIO(pins)
	require.NoError(t, g.Claim([]int{4}))

	for range queueSize + 3 {
		pins.set(4, true)
		g.poll()
		clk.advance(60 * time.Millisecond)
		g.poll()
		pins.set(4, false)
		g.poll()
		clk.advance(60 * time.Millisecond)
		g.poll()
	}
	require.Len(t, drain(g), queueSize)
}

func TestGPIORunStopsWithContext(t *testing.T) {
	pins := newFakePins()
	g := newGPIO(pins, GPIOOptions{Debounce: 0, Poll: time.Millisecond}, nil)
	require.NoError(t, g.Claim([]int{9}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	pins.set(9, true)
	select {
	case p := <-g.Presses():
		require.Equal(t, 9, p.Pin)
	case <-time.After(2 * time.Second):
		t.Fatal("expected press")
	}

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, g.Close())
	require.True(t, pins.closed)
}
