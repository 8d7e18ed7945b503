package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFullProfile(t *testing.T) {
	content := `
log_dir: /var/log/pizoo
sounds_dir: /srv/sounds
startup_sound: startup.wav
shutdown_sound: /opt/cues/bye.ogg
switch_sound: switch.wav
shutdown_button_pin: 26
switch_button_pin: "19"
buttons:
  "17": cat
  27: dog
  22: " cow "
`
	loaded, err := Parse("farm.yaml", []byte(content))
	require.NoError(t, err)
	require.Empty(t, loaded.Warnings)

	p := loaded.Profile
	require.Equal(t, "farm.yaml", p.Name)
	require.Equal(t, "/var/log/pizoo", p.LogDirectory)
	require.Equal(t, "/srv/sounds", p.SoundsDirectory)
	require.Equal(t, "startup.wav", p.StartupSound)
	require.Equal(t, "/opt/cues/bye.ogg", p.ShutdownSound)
	require.Equal(t, "switch.wav", p.SwitchSound)
	require.NotNil(t, p.ShutdownPin)
	require.Equal(t, 26, *p.ShutdownPin)
	require.NotNil(t, p.SwitchPin)
	require.Equal(t, 19, *p.SwitchPin)
	require.Equal(t, map[int]string{17: "cat", 27: "dog", 22: "cow"}, p.Bindings)

	require.Equal(t, "/srv/sounds/startup.wav", p.ClipPath(p.StartupSound))
	require.Equal(t, "/opt/cues/bye.ogg", p.ClipPath(p.ShutdownSound))
	require.Equal(t, "", p.ClipPath(""))
	require.Equal(t, "/srv/sounds/cat", p.AnimalDir("cat"))
	require.Equal(t, []int{17, 22, 27}, p.Pins())
}

func TestParseAppliesDefaults(t *testing.T) {
	loaded, err := Parse("empty.yaml", []byte(""))
	require.NoError(t, err)

	p := loaded.Profile
	require.Equal(t, Resolve("log"), p.LogDirectory)
	require.Equal(t, Resolve("animal_sounds"), p.SoundsDirectory)
	require.Empty(t, p.StartupSound)
	require.Nil(t, p.ShutdownPin)
	require.Nil(t, p.SwitchPin)
	require.NotNil(t, p.Bindings)
	require.Empty(t, p.Bindings)
}

func TestParseEmptyButtonsAndNullCues(t *testing.T) {
	loaded, err := Parse("quiet.yaml", []byte("buttons: {}\nstartup_sound:\nswitch_sound: ~\n"))
	require.NoError(t, err)
	require.Empty(t, loaded.Profile.Bindings)
	require.Empty(t, loaded.Profile.StartupSound)
	require.Empty(t, loaded.Profile.SwitchSound)
	require.Empty(t, loaded.Profile.Animals())
}

func TestParseUnknownKeysWarn(t *testing.T) {
	loaded, err := Parse("farm.yaml", []byte("volume: 11\nbuttons: {}\n"))
	require.NoError(t, err)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0], `unknown key "volume"`)
}

func TestParseRejectsMalformedContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "not yaml", content: "buttons: [unclosed", wantErr: ""},
		{name: "top level list", content: "- cat\n- dog\n", wantErr: ""},
		{name: "buttons list", content: "buttons:\n  - cat\n", wantErr: "buttons must be a mapping"},
		{name: "non numeric pin", content: "buttons:\n  seventeen: cat\n", wantErr: "invalid pin"},
		{name: "negative pin", content: "buttons:\n  -4: cat\n", wantErr: "must not be negative"},
		{name: "duplicate pin", content: "buttons:\n  17: cat\n  \"017\": dog\n", wantErr: "bound twice"},
		{name: "empty animal", content: "buttons:\n  17: \"\"\n", wantErr: "must not be empty"},
		{name: "nested animal", content: "buttons:\n  17: {name: cat}\n", wantErr: "must be a string"},
		{name: "escaping animal", content: "buttons:\n  17: ../etc\n", wantErr: "path separator"},
		{name: "bad switch pin", content: "switch_button_pin: left\n", wantErr: "switch_button_pin"},
		{name: "sounds dir mapping", content: "sounds_dir: {a: b}\n", wantErr: "sounds_dir must be a string"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tc.content))
			require.Error(t, err)
			if tc.wantErr != "" {
				require.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestAnimalsAreDistinctAndSorted(t *testing.T) {
	p := Profile{Bindings: map[int]string{4: "dog", 5: "cat", 6: "dog"}}
	require.Equal(t, []string{"cat", "dog"}, p.Animals())
}

func TestLoadWrapsErrorsWithPath(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	_, err := Load(missing)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	require.Equal(t, missing, loadErr.Path)
	require.True(t, errors.Is(err, os.ErrNotExist))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("buttons: [oops"), 0o600))
	_, err = Load(broken)
	require.True(t, errors.As(err, &loadErr))
	require.Contains(t, err.Error(), broken)
}

func TestLoadSetsNameAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.profile")
	require.NoError(t, os.WriteFile(path, []byte("buttons:\n  1: cat\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "a.profile", loaded.Profile.Name)
	require.Equal(t, map[int]string{1: "cat"}, loaded.Profile.Bindings)
}
