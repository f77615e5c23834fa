package scan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludedDirs lists version-control metadata, dependency caches and
// build output that are never traversed or compared
var DefaultExcludedDirs = []string{
	"node_modules",
	"dist",
	".next",
	".git",
	"__pycache__",
	".vscode",
	".idea",
	"build",
	"target",
	"venv",
	"vendor",
	"bower_components",
	".npm",
	".cache",
}

// ExclusionSet decides whether a path must be skipped from scanning.
// Patterns are matched against single path components, either exactly or as
// glob patterns (*.egg-info, .tox*). The set is immutable once built.
type ExclusionSet struct {
	names    map[string]struct{}
	globs    []string
	hidden   bool
	patterns []string
}

// NewExclusionSet builds a set from directory-name patterns.
// A trailing slash and a leading "**/" are accepted and ignored, so
// "node_modules/" and "**/node_modules" mean the same as "node_modules".
// When excludeHidden is true, any directory whose name starts with a dot is
// excluded as well.
func NewExclusionSet(patterns []string, excludeHidden bool) (*ExclusionSet, error) {
	set := &ExclusionSet{
		names:  make(map[string]struct{}),
		hidden: excludeHidden,
	}

	for _, raw := range patterns {
		pattern := strings.TrimSpace(filepath.ToSlash(raw))
		pattern = strings.TrimPrefix(pattern, "**/")
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "/") {
			return nil, fmt.Errorf("invalid exclude pattern %q: must name a single path component", raw)
		}

		if strings.ContainsAny(pattern, "*?[") {
			if _, err := filepath.Match(pattern, ""); err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", raw, err)
			}
			set.globs = append(set.globs, pattern)
		} else {
			set.names[pattern] = struct{}{}
		}
		set.patterns = append(set.patterns, pattern)
	}

	sort.Strings(set.patterns)
	return set, nil
}

// DefaultExclusionSet returns the set built from DefaultExcludedDirs
func DefaultExclusionSet() *ExclusionSet {
	set, _ := NewExclusionSet(DefaultExcludedDirs, false)
	return set
}

// Patterns returns the normalized patterns of the set, sorted
func (e *ExclusionSet) Patterns() []string {
	out := make([]string, len(e.patterns))
	copy(out, e.patterns)
	return out
}

// MatchesName reports whether a single path component matches a pattern
func (e *ExclusionSet) MatchesName(name string) bool {
	if _, ok := e.names[name]; ok {
		return true
	}
	for _, pattern := range e.globs {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// IsExcluded reports whether any component of the path matches the set.
// The last component is treated as a file name: the hidden-directory rule
// does not apply to it.
func (e *ExclusionSet) IsExcluded(segments []string) bool {
	for i, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if e.MatchesName(segment) {
			return true
		}
		if e.hidden && i < len(segments)-1 && strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// IsExcludedDir reports whether a directory must not be traversed
func (e *ExclusionSet) IsExcludedDir(segments []string) bool {
	if len(segments) == 0 {
		return false
	}
	if e.IsExcluded(segments) {
		return true
	}
	last := segments[len(segments)-1]
	return e.hidden && strings.HasPrefix(last, ".") && last != "." && last != ".."
}

// IsExcludedPath is IsExcluded over a forward-slash relative path
func (e *ExclusionSet) IsExcludedPath(rel string) bool {
	return e.IsExcluded(SplitPath(rel))
}

// SplitPath splits a relative path into its components
func SplitPath(rel string) []string {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}
