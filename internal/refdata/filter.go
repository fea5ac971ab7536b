package refdata

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludePatterns are skipped when a glob source expands. They match
// dependency and build directories, relative to the glob's base directory,
// that often contain copies of the same constants.
var DefaultExcludePatterns = []string{
	"**/node_modules/**", "**/vendor/**",
	"**/target/**", "**/build/**", "**/out/**", "**/dist/**",
	"**/.git/**", "**/.gradle/**", "**/.m2/**", "**/.idea/**",
	"**/generated/**", "**/generated-sources/**",
}

// SourceFilter decides which files matched by a glob source are loaded.
type SourceFilter struct {
	patterns []string
}

// NewSourceFilter creates a filter with the default exclusions plus extra patterns.
func NewSourceFilter(extra ...string) *SourceFilter {
	patterns := make([]string, 0, len(DefaultExcludePatterns)+len(extra))
	patterns = append(patterns, DefaultExcludePatterns...)
	patterns = append(patterns, extra...)
	return &SourceFilter{patterns: patterns}
}

// ShouldExclude reports whether relPath, relative to the glob base, matches an
// exclusion pattern.
func (f *SourceFilter) ShouldExclude(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Filter drops excluded files from matches, which were expanded from a
// pattern rooted at base.
func (f *SourceFilter) Filter(base string, matches []string) []string {
	out := matches[:0:0]
	for _, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			rel = m
		}
		if f.ShouldExclude(rel) {
			continue
		}
		out = append(out, m)
	}
	return out
}
