package profile

import (
	"fmt"
	"os"
)

// ProblemKind classifies a missing asset.
type ProblemKind string

const (
	MissingDirectory ProblemKind = "directory"
	MissingFile      ProblemKind = "file"
)

// Problem describes one asset a profile references that is not on disk.
type Problem struct {
	Kind    ProblemKind
	Subject string
	Path    string
}

func (p Problem) String() string {
	return fmt.Sprintf("Missing %s: %s (%s)", p.Kind, p.Subject, p.Path)
}

// Validate reports every missing directory or file the profile references,
// in a fixed order: log dir, sounds dir, each animal folder, startup sound.
func Validate(p Profile) []Problem {
	var problems []Problem

	if !isDir(p.LogDirectory) {
		problems = append(problems, Problem{Kind: MissingDirectory, Subject: "log_dir", Path: p.LogDirectory})
	}
	if !isDir(p.SoundsDirectory) {
		problems = append(problems, Problem{Kind: MissingDirectory, Subject: "sounds_dir", Path: p.SoundsDirectory})
	}

	seen := make(map[string]struct{}, len(p.Bindings))
	for _, pin := range p.Pins() {
		animal := p.Bindings[pin]
		if _, ok := seen[animal]; ok {
			continue
		}
		seen[animal] = struct{}{}

		dir := p.AnimalDir(animal)
		if !isDir(dir) {
			problems = append(problems, Problem{Kind: MissingDirectory, Subject: "sound folder for " + animal, Path: dir})
		}
	}

	if p.StartupSound != "" {
		path := p.ClipPath(p.StartupSound)
		if !isFile(path) {
			problems = append(problems, Problem{Kind: MissingFile, Subject: "startup sound", Path: path})
		}
	}

	return problems
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
