package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Classification is the migration-effort category of a source unit.
type Classification string

const (
	NoChange     Classification = "NO_CHANGE"
	MinorFix     Classification = "MINOR_FIX"
	MajorRewrite Classification = "MAJOR_REWRITE"
	Remove       Classification = "REMOVE"
)

var known = []Classification{NoChange, MinorFix, MajorRewrite, Remove}

func (c Classification) Valid() bool {
	for _, k := range known {
		if c == k {
			return true
		}
	}
	return false
}

// Normalize maps a raw oracle answer onto a category. It folds case, spaces
// and dashes, strips quotes and list numbering, and accepts an answer that
// mentions exactly one category. ok is false when no single category matches.
func Normalize(raw string) (Classification, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.Trim(s, "`'\".* ")
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if c := Classification(s); c.Valid() {
		return c, true
	}

	var found []Classification
	for _, k := range known {
		if strings.Contains(s, string(k)) {
			found = append(found, k)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return "", false
}

// Mapping assigns a classification to each unit path.
type Mapping map[string]Classification

// Paths returns the keys in lexical order.
func (m Mapping) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Select returns the sorted paths classified as c.
func (m Mapping) Select(c Classification) []string {
	var out []string
	for _, p := range m.Paths() {
		if m[p] == c {
			out = append(out, p)
		}
	}
	return out
}

// Counts tallies the mapping per category.
func (m Mapping) Counts() map[Classification]int {
	counts := make(map[Classification]int, len(known))
	for _, c := range m {
		counts[c]++
	}
	return counts
}

// SaveMapping writes the classification file, creating parent directories.
func SaveMapping(path string, m Mapping) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadMapping reads a classification file. Values are normalized; a value
// that matches no category is kept as written so it is never selected for
// rewriting.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification file %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode classification file %s: %w", path, err)
	}
	m := make(Mapping, len(raw))
	for p, v := range raw {
		if c, ok := Normalize(v); ok {
			m[p] = c
		} else {
			m[p] = Classification(v)
		}
	}
	return m, nil
}
