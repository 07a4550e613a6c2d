package parser

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ExpandGlobs expands log file paths and glob patterns (e.g. rotated logs)
// into a deduplicated, sorted list. A pattern matching nothing is kept as a
// literal path so the caller reports a file-not-found error for it.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}

	slices.Sort(paths)
	return paths, nil
}
