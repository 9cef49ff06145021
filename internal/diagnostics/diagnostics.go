// Package diagnostics turns unstructured build output into the set of source
// units the compiler blamed.
package diagnostics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultPattern matches "<unit>:<line>: error" for any unit identifier.
	DefaultPattern = `(?P<unit>[^:\s]+):\d+:\s+error`
	// JavacPattern only accepts .java units.
	JavacPattern = `(?P<unit>[^:\s]+\.java):\d+:\s+error`
)

// Set is a deduplicated collection of unit identifiers.
type Set map[string]struct{}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Extractor is a pure function from build text to failing units. It holds no
// state besides its compiled pattern and is safe for concurrent use.
type Extractor struct {
	re   *regexp.Regexp
	unit int
}

// New compiles pattern, which must contain a named group "unit".
func New(pattern string) (*Extractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid diagnostic pattern: %w", err)
	}
	idx := re.SubexpIndex("unit")
	if idx < 0 {
		return nil, fmt.Errorf("diagnostic pattern %q has no (?P<unit>...) group", pattern)
	}
	return &Extractor{re: re, unit: idx}, nil
}

// Default returns an Extractor for DefaultPattern.
func Default() *Extractor {
	e, err := New(DefaultPattern)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract returns every unit named by an error line of raw. An empty set for a
// failed build means the failure cannot be attributed to any unit.
func (e *Extractor) Extract(raw string) Set {
	units := make(Set)
	for _, line := range strings.Split(raw, "\n") {
		for _, m := range e.re.FindAllStringSubmatch(line, -1) {
			units[m[e.unit]] = struct{}{}
		}
	}
	return units
}

// Lines returns the error lines of raw that name unit, in output order.
func (e *Extractor) Lines(raw, unit string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		for _, m := range e.re.FindAllStringSubmatch(line, -1) {
			if m[e.unit] == unit {
				out = append(out, strings.TrimSpace(line))
				break
			}
		}
	}
	return out
}
