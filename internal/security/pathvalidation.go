// Package security validates file paths taken from API clients before they
// reach the filesystem.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveWithinDirectory joins name onto dir and verifies the result stays
// inside dir. It rejects absolute names and any traversal out of dir, whether
// spelled directly or via .. components. The returned path is cleaned and
// safe to open.
func ResolveWithinDirectory(name, dir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", name)
	}

	resolved := filepath.Join(dir, name)

	rel, err := filepath.Rel(dir, resolved)
	if err != nil {
		return "", fmt.Errorf("path escapes %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s escapes %s", name, dir)
	}
	return resolved, nil
}
