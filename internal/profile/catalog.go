package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoProfiles reports a missing or empty profiles directory.
var ErrNoProfiles = errors.New("no profiles found")

// Suffixes are the file extensions recognized as profile definitions.
var Suffixes = []string{".yaml", ".yml", ".profile"}

// Catalog is the ordered list of profile files discovered at startup.
type Catalog struct {
	Dir     string
	Entries []string
}

// Discover lists profile files in dir, sorted lexicographically so the
// switch order is the same on every boot.
func Discover(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: read %s: %v", ErrNoProfiles, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !hasProfileSuffix(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return Catalog{}, fmt.Errorf("%w: no %s files in %s", ErrNoProfiles, strings.Join(Suffixes, "/"), dir)
	}
	sort.Strings(names)

	return Catalog{Dir: dir, Entries: names}, nil
}

// Len returns the number of profiles in the catalog.
func (c Catalog) Len() int {
	return len(c.Entries)
}

// Path returns the file path of entry i.
func (c Catalog) Path(i int) string {
	return filepath.Join(c.Dir, c.Entries[i])
}

// Advance returns the index after current, wrapping to 0. With a single
// profile it always returns 0, which turns "switch" into "reload".
func Advance(current, count int) int {
	if count <= 0 {
		return 0
	}
	return (current + 1) % count
}

func hasProfileSuffix(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, suffix := range Suffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}
