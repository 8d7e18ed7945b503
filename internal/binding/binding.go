// Package binding maps input pins to actions and owns the claimed pin set.
package binding

import (
	"fmt"
	"sort"

	"github.com/matteobonanomi/pizoo/internal/profile"
)

// Kind is what pressing a bound pin does.
type Kind int

const (
	PlayAnimal Kind = iota + 1
	AdvanceProfile
	Shutdown
)

func (k Kind) String() string {
	switch k {
	case PlayAnimal:
		return "play"
	case AdvanceProfile:
		return "switch"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is the record dispatched for one pin.
type Action struct {
	Kind   Kind
	Animal string
}

// Table is the full pin-to-action map of one profile.
type Table map[int]Action

// Build derives the table for p. A control pin that also appears in the
// animal bindings keeps its control action; each such overlap is returned
// as a warning.
func Build(p profile.Profile) (Table, []string) {
	table := make(Table, len(p.Bindings)+2)
	for pin, animal := range p.Bindings {
		table[pin] = Action{Kind: PlayAnimal, Animal: animal}
	}

	var warnings []string
	control := func(pin *int, kind Kind, key string) {
		if pin == nil {
			return
		}
		if prev, ok := table[*pin]; ok {
			if prev.Kind == PlayAnimal {
				warnings = append(warnings, fmt.Sprintf("%s %d overrides button for %q", key, *pin, prev.Animal))
			} else {
				warnings = append(warnings, fmt.Sprintf("%s %d overrides %s button", key, *pin, prev.Kind))
			}
		}
		table[*pin] = Action{Kind: kind}
	}
	control(p.SwitchPin, AdvanceProfile, "switch_button_pin")
	control(p.ShutdownPin, Shutdown, "shutdown_button_pin")

	return table, warnings
}

// Lookup returns the action bound to pin.
func (t Table) Lookup(pin int) (Action, bool) {
	action, ok := t[pin]
	return action, ok
}

// Pins returns every bound pin in ascending order.
func (t Table) Pins() []int {
	pins := make([]int, 0, len(t))
	for pin := range t {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	return pins
}

// AnimalCount is the number of pins bound to animals.
func (t Table) AnimalCount() int {
	count := 0
	for _, action := range t {
		if action.Kind == PlayAnimal {
			count++
		}
	}
	return count
}
