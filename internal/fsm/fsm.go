// Package fsm defines the session lifecycle states and their transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateBooting      State = "booting"
	StateReady        State = "ready"
	StateSwitching    State = "switching"
	StateShuttingDown State = "shutting_down"
)

const (
	EventBooted       Event = "booted"
	EventSwitch       Event = "switch"
	EventSwitched     Event = "switched"
	EventSwitchFailed Event = "switch_failed"
	EventShutdown     Event = "shutdown"
)

// Transition returns the state reached from current on event. Invalid
// transitions leave the state unchanged and return an error.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateBooting:
		switch event {
		case EventBooted:
			return StateReady, nil
		case EventShutdown:
			return StateShuttingDown, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReady:
		switch event {
		case EventSwitch:
			return StateSwitching, nil
		case EventShutdown:
			return StateShuttingDown, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSwitching:
		switch event {
		case EventSwitched, EventSwitchFailed:
			return StateReady, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateShuttingDown:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// AcceptsPresses reports whether button presses are dispatched in s.
func AcceptsPresses(s State) bool {
	return s == StateReady
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
