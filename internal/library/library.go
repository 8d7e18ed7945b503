// Package library builds the per-profile index of decoded clips.
package library

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/matteobonanomi/pizoo/internal/audio"
	"github.com/matteobonanomi/pizoo/internal/profile"
	"golang.org/x/sync/errgroup"
)

// Decoder turns one sound file into a clip.
type Decoder interface {
	Decode(path string) (*audio.Clip, error)
}

// Cue names a lifecycle clip.
type Cue string

const (
	CueStartup  Cue = "startup"
	CueSwitch   Cue = "switch"
	CueShutdown Cue = "shutdown"
)

// Library holds every decoded clip for one profile. It is built whole and
// never mutated afterwards.
type Library struct {
	profile string
	clips   map[string][]*audio.Clip
	cues    map[Cue]*audio.Clip
}

// Empty returns a library with no animals and no cues.
func Empty() *Library {
	return &Library{clips: map[string][]*audio.Clip{}, cues: map[Cue]*audio.Clip{}}
}

// New assembles a library from already decoded clips.
func New(profileName string, clips map[string][]*audio.Clip, cues map[Cue]*audio.Clip) *Library {
	lib := &Library{profile: profileName, clips: clips, cues: cues}
	if lib.clips == nil {
		lib.clips = map[string][]*audio.Clip{}
	}
	if lib.cues == nil {
		lib.cues = map[Cue]*audio.Clip{}
	}
	return lib
}

// Build decodes every clip the profile references. Missing directories and
// undecodable files are logged and skipped; the only error is ctx ending.
func Build(ctx context.Context, p profile.Profile, decoder Decoder, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("profile", p.Name)

	lib := &Library{
		profile: p.Name,
		clips:   make(map[string][]*audio.Clip),
		cues:    make(map[Cue]*audio.Clip),
	}

	for _, animal := range p.Animals() {
		clips, err := buildAnimal(ctx, p.AnimalDir(animal), decoder, logger.With("animal", animal))
		if err != nil {
			return nil, err
		}
		lib.clips[animal] = clips
		if len(clips) == 0 {
			logger.Warn("no playable clips", "animal", animal)
			continue
		}
		logger.Info("animal clips loaded", "animal", animal, "count", len(clips))
	}

	for cue, ref := range map[Cue]string{
		CueStartup:  p.StartupSound,
		CueSwitch:   p.SwitchSound,
		CueShutdown: p.ShutdownSound,
	} {
		if ref == "" {
			continue
		}
		path := p.ClipPath(ref)
		clip, err := decoder.Decode(path)
		if err != nil {
			logger.Warn("cue sound unavailable", "cue", string(cue), "path", path, "error", err.Error())
			continue
		}
		lib.cues[cue] = clip
	}

	return lib, nil
}

func buildAnimal(ctx context.Context, dir string, decoder Decoder, logger *slog.Logger) ([]*audio.Clip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("sound folder missing", "path", dir)
		} else {
			logger.Warn("sound folder unreadable", "path", dir, "error", err.Error())
		}
		return []*audio.Clip{}, nil
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !audio.IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	decoded := make([]*audio.Clip, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clip, err := decoder.Decode(path)
			if err != nil {
				logger.Warn("skipping clip", "path", path, "error", err.Error())
				return nil
			}
			decoded[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clips := make([]*audio.Clip, 0, len(decoded))
	for _, clip := range decoded {
		if clip != nil {
			clips = append(clips, clip)
		}
	}
	return clips, nil
}

// Profile is the name of the profile the library was built for.
func (l *Library) Profile() string {
	if l == nil {
		return ""
	}
	return l.profile
}

// Clips returns the clips for animal. Unknown animals yield nil.
func (l *Library) Clips(animal string) []*audio.Clip {
	if l == nil {
		return nil
	}
	return l.clips[animal]
}

// Animals returns the indexed animal names, sorted.
func (l *Library) Animals() []string {
	if l == nil {
		return nil
	}
	animals := make([]string, 0, len(l.clips))
	for animal := range l.clips {
		animals = append(animals, animal)
	}
	sort.Strings(animals)
	return animals
}

// Len is the number of indexed animals.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.clips)
}

// Cue returns the decoded lifecycle clip, or nil when none is configured or
// it failed to decode.
func (l *Library) Cue(cue Cue) *audio.Clip {
	if l == nil {
		return nil
	}
	return l.cues[cue]
}
