// Package matching decides which files under a source tree are candidates
// for ingestion, based on inclusion/exclusion patterns and a size cap.
package matching

import (
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"

	"docquery/matching/option"
)

// Manager applies file selection rules to candidate locations.
type Manager struct {
	options *option.Options
}

// New creates a matching manager with the given options
func New(opts ...option.Option) *Manager {
	return &Manager{options: option.NewOptions(opts...)}
}

// IsExcluded checks if a path should be skipped based on the patterns
func (m *Manager) IsExcluded(location string, size int) bool {
	if m.options.MaxFileSize > 0 && size > m.options.MaxFileSize {
		return true
	}

	path := filepath.ToSlash(url.Path(location))

	if len(m.options.Inclusions) > 0 && !m.isIncluded(path) {
		return true
	}

	for _, pattern := range m.options.Exclusions {
		pattern = strings.TrimSpace(pattern)
		// Skip comments or empty lines
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matchPattern(path, pattern) {
			return true
		}
	}
	return false
}

func (m *Manager) isIncluded(path string) bool {
	for _, pattern := range m.options.Inclusions {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matchPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchPattern applies a .gitignore-style pattern against a slash path.
func matchPattern(path, pattern string) bool {
	pattern = strings.TrimPrefix(pattern, "/")

	// Directory pattern: matches when any path segment equals the name.
	if strings.HasSuffix(pattern, "/") {
		name := strings.TrimSuffix(pattern, "/")
		for _, segment := range strings.Split(path, "/") {
			if segment == name {
				return true
			}
		}
		return false
	}

	base := filepath.Base(path)
	if pattern == base {
		return true
	}
	if !strings.Contains(pattern, "/") {
		// Bare glob applies to the basename anywhere in the tree.
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		return false
	}
	if strings.HasPrefix(pattern, "**/") {
		tail := strings.TrimPrefix(pattern, "**/")
		if matched, _ := filepath.Match(tail, base); matched {
			return true
		}
	}
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	return strings.Contains(path, pattern)
}
