package library

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/audio/audiotest"
	"github.com/matteobonanomi/pizoo/internal/profile"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) warnings(msg string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.Contains(line, `"level":"WARN"`) && strings.Contains(line, `"msg":"`+msg+`"`) {
			count++
		}
	}
	return count
}

func testLogger() (*slog.Logger, *lockedBuffer) {
	buf := &lockedBuffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

var decoder = audio.Decoder{SampleRate: 8000}

func TestBuildOneEntryPerDistinctAnimal(t *testing.T) {
	sounds := t.TempDir()
	audiotest.WriteWAV(t, filepath.Join(sounds, "cat", "meow1.wav"), 8000, 400)
	audiotest.WriteWAV(t, filepath.Join(sounds, "cat", "meow2.wav"), 8000, 400)
	audiotest.WriteWAV(t, filepath.Join(sounds, "dog", "woof.wav"), 8000, 400)

	p := profile.Profile{
		Name:            "farm.yaml",
		SoundsDirectory: sounds,
		Bindings:        map[int]string{1: "cat", 2: "dog", 3: "cat"},
	}

	lib, err := Build(context.Background(), p, decoder, nil)
	require.NoError(t, err)
	require.Equal(t, "farm.yaml", lib.Profile())
	require.Equal(t, 2, lib.Len())
	require.Equal(t, []string{"cat", "dog"}, lib.Animals())
	require.Len(t, lib.Clips("cat"), 2)
	require.Equal(t, "meow1.wav", lib.Clips("cat")[0].Name)
	require.Equal(t, "meow2.wav", lib.Clips("cat")[1].Name)
	require.Len(t, lib.Clips("dog"), 1)
	require.Nil(t, lib.Clips("cow"))
}

func TestBuildMissingDirectoryYieldsEmptyList(t *testing.T) {
	logger, logs := testLogger()
	p := profile.Profile{
		SoundsDirectory: t.TempDir(),
		Bindings:        map[int]string{4: "cow"},
	}

	lib, err := Build(context.Background(), p, decoder, logger)
	require.NoError(t, err)
	require.Equal(t, []string{"cow"}, lib.Animals())
	require.NotNil(t, lib.Clips("cow"))
	require.Empty(t, lib.Clips("cow"))
	require.Equal(t, 1, logs.warnings("sound folder missing"))
	require.Equal(t, 1, logs.warnings("no playable clips"))
}

func TestBuildSkipsCorruptFile(t *testing.T) {
	logger, logs := testLogger()
	sounds := t.TempDir()
	audiotest.WriteCorrupt(t, filepath.Join(sounds, "cat", "broken.wav"))
	audiotest.WriteWAV(t, filepath.Join(sounds, "cat", "meow.wav"), 8000, 400)
	audiotest.WriteCorrupt(t, filepath.Join(sounds, "cat", "readme.txt"))

	p := profile.Profile{SoundsDirectory: sounds, Bindings: map[int]string{1: "cat"}}

	lib, err := Build(context.Background(), p, decoder, logger)
	require.NoError(t, err)
	require.Len(t, lib.Clips("cat"), 1)
	require.Equal(t, "meow.wav", lib.Clips("cat")[0].Name)
	require.Equal(t, 1, logs.warnings("skipping clip"))
}

func TestBuildEmptyBindings(t *testing.T) {
	lib, err := Build(context.Background(), profile.Profile{Bindings: map[int]string{}}, decoder, nil)
	require.NoError(t, err)
	require.Zero(t, lib.Len())
	require.Empty(t, lib.Animals())
}

func TestBuildDecodesCues(t *testing.T) {
	logger, logs := testLogger()
	sounds := t.TempDir()
	audiotest.WriteWAV(t, filepath.Join(sounds, "hello.wav"), 8000, 400)
	outside := filepath.Join(t.TempDir(), "bye.wav")
	audiotest.WriteWAV(t, outside, 8000, 400)

	p := profile.Profile{
		SoundsDirectory: sounds,
		StartupSound:    "hello.wav",
		ShutdownSound:   outside,
		SwitchSound:     "missing.wav",
	}

	lib, err := Build(context.Background(), p, decoder, logger)
	require.NoError(t, err)
	require.NotNil(t, lib.Cue(CueStartup))
	require.NotNil(t, lib.Cue(CueShutdown))
	require.Nil(t, lib.Cue(CueSwitch))
	require.Equal(t, 1, logs.warnings("cue sound unavailable"))
}

func TestBuildStopsOnCancelledContext(t *testing.T) {
	sounds := t.TempDir()
	audiotest.WriteWAV(t, filepath.Join(sounds, "cat", "meow.wav"), 8000, 400)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, profile.Profile{SoundsDirectory: sounds, Bindings: map[int]string{1: "cat"}}, decoder, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmpty(t *testing.T) {
	lib := Empty()
	require.Zero(t, lib.Len())
	require.Nil(t, lib.Cue(CueStartup))
}

func TestNilLibraryLookups(t *testing.T) {
	var lib *Library
	require.Nil(t, lib.Clips("cat"))
	require.Nil(t, lib.Cue(CueSwitch))
}
