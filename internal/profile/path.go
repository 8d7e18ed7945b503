package profile

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve expands a leading "~" and anchors relative paths at the working
// directory. It never fails: a path that does not exist is still returned and
// left for Validate to report.
func Resolve(raw string) string {
	path := expandHome(strings.TrimSpace(raw))
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func expandHome(raw string) string {
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	if raw == "~" {
		return home
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
}
