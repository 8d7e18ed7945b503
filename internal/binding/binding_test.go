package binding

import (
	"testing"

	"github.com/matteobonanomi/pizoo/internal/profile"
	"github.com/stretchr/testify/require"
)

func pin(n int) *int { return &n }

func TestBuildTable(t *testing.T) {
	table, warnings := Build(profile.Profile{
		Bindings:    map[int]string{17: "cat", 27: "dog"},
		SwitchPin:   pin(5),
		ShutdownPin: pin(6),
	})
	require.Empty(t, warnings)
	require.Equal(t, []int{5, 6, 17, 27}, table.Pins())
	require.Equal(t, 2, table.AnimalCount())

	action, ok := table.Lookup(17)
	require.True(t, ok)
	require.Equal(t, Action{Kind: PlayAnimal, Animal: "cat"}, action)

	action, ok = table.Lookup(5)
	require.True(t, ok)
	require.Equal(t, AdvanceProfile, action.Kind)

	action, ok = table.Lookup(6)
	require.True(t, ok)
	require.Equal(t, Shutdown, action.Kind)

	_, ok = table.Lookup(99)
	require.False(t, ok)
}

func TestBuildControlPinsWin(t *testing.T) {
	table, warnings := Build(profile.Profile{
		Bindings:    map[int]string{17: "cat"},
		SwitchPin:   pin(17),
		ShutdownPin: pin(17),
	})
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0], `overrides button for "cat"`)
	require.Contains(t, warnings[1], "overrides switch button")

	action, _ := table.Lookup(17)
	require.Equal(t, Shutdown, action.Kind)
	require.Zero(t, table.AnimalCount())
}

func TestBuildEmptyProfile(t *testing.T) {
	table, warnings := Build(profile.Profile{Bindings: map[int]string{}})
	require.Empty(t, warnings)
	require.Empty(t, table.Pins())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "play", PlayAnimal.String())
	require.Equal(t, "switch", AdvanceProfile.String())
	require.Equal(t, "shutdown", Shutdown.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}
