// Package profile discovers, loads, and validates soundboard profiles.
//
// A profile maps input pins to animal names (sub-directories of the sounds
// directory) and names the optional startup, switch, and shutdown cues.
package profile

import (
	"path/filepath"
	"sort"
)

const (
	DefaultLogDirectory    = "log"
	DefaultSoundsDirectory = "animal_sounds"
)

// Profile is one loaded profile definition. It is replaced, never mutated,
// when the active profile changes.
type Profile struct {
	Name            string
	LogDirectory    string
	SoundsDirectory string
	StartupSound    string
	ShutdownSound   string
	SwitchSound     string
	ShutdownPin     *int
	SwitchPin       *int
	Bindings        map[int]string
}

// ClipPath resolves a cue reference against the sounds directory unless it
// is already absolute. Empty references stay empty.
func (p Profile) ClipPath(ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(p.SoundsDirectory, ref)
}

// AnimalDir is the directory holding the clips for one animal.
func (p Profile) AnimalDir(animal string) string {
	return filepath.Join(p.SoundsDirectory, animal)
}

// Animals returns the distinct animal names referenced by the bindings, sorted.
func (p Profile) Animals() []string {
	seen := make(map[string]struct{}, len(p.Bindings))
	animals := make([]string, 0, len(p.Bindings))
	for _, animal := range p.Bindings {
		if _, ok := seen[animal]; ok {
			continue
		}
		seen[animal] = struct{}{}
		animals = append(animals, animal)
	}
	sort.Strings(animals)
	return animals
}

// Pins returns the bound animal pins in ascending order.
func (p Profile) Pins() []int {
	pins := make([]int, 0, len(p.Bindings))
	for pin := range p.Bindings {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	return pins
}
