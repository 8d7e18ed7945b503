package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateReportsEveryProblemInOrder(t *testing.T) {
	root := t.TempDir()
	p := Profile{
		LogDirectory:    filepath.Join(root, "log"),
		SoundsDirectory: filepath.Join(root, "sounds"),
		StartupSound:    "startup.wav",
		Bindings:        map[int]string{17: "cat", 27: "dog", 22: "cat"},
	}

	problems := Validate(p)
	require.Len(t, problems, 5)
	require.Equal(t, Problem{Kind: MissingDirectory, Subject: "log_dir", Path: p.LogDirectory}, problems[0])
	require.Equal(t, Problem{Kind: MissingDirectory, Subject: "sounds_dir", Path: p.SoundsDirectory}, problems[1])
	require.Equal(t, "sound folder for cat", problems[2].Subject)
	require.Equal(t, "sound folder for dog", problems[3].Subject)
	require.Equal(t, Problem{Kind: MissingFile, Subject: "startup sound", Path: filepath.Join(root, "sounds", "startup.wav")}, problems[4])
	require.Equal(t, "Missing directory: log_dir ("+p.LogDirectory+")", problems[0].String())
}

func TestValidateCleanProfile(t *testing.T) {
	root := t.TempDir()
	sounds := filepath.Join(root, "sounds")
	require.NoError(t, os.MkdirAll(filepath.Join(sounds, "cat"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "log"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sounds, "startup.wav"), []byte("riff"), 0o600))

	p := Profile{
		LogDirectory:    filepath.Join(root, "log"),
		SoundsDirectory: sounds,
		StartupSound:    "startup.wav",
		Bindings:        map[int]string{17: "cat"},
	}
	require.Empty(t, Validate(p))
}

func TestValidateStartupSoundMustBeFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "startup.wav"), 0o755))

	p := Profile{LogDirectory: root, SoundsDirectory: root, StartupSound: "startup.wav"}
	problems := Validate(p)
	require.Len(t, problems, 1)
	require.Equal(t, MissingFile, problems[0].Kind)
}
