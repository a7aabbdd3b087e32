package filter

import (
	"fmt"

	"github.com/gobwas/glob"
)

// CallsignFilter decides whether a callsign should be reported, based on
// a set of ignore patterns with shell-glob semantics (*, ?, character
// classes). Patterns are compiled once at construction; matching is
// full-string, not substring.
type CallsignFilter struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	source string
	g      glob.Glob
}

// New compiles the ignore patterns into a filter. An unparseable pattern
// is a configuration error.
func New(ignorePatterns []string) (*CallsignFilter, error) {
	f := &CallsignFilter{}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, compiledPattern{source: p, g: g})
	}
	return f, nil
}

// ShouldReport reports whether the callsign should be passed on. An empty
// callsign is never reported; with no ignore patterns configured every
// callsign is reported; otherwise a callsign matching any pattern is
// suppressed.
func (f *CallsignFilter) ShouldReport(callsign string) bool {
	if callsign == "" {
		return false
	}
	for _, p := range f.patterns {
		if p.g.Match(callsign) {
			return false
		}
	}
	return true
}

// Patterns returns the source patterns the filter was built from.
func (f *CallsignFilter) Patterns() []string {
	out := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		out[i] = p.source
	}
	return out
}
