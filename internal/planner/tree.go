package planner

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultTreeDepth limits how deep RenderTree descends.
const DefaultTreeDepth = 4

var skippedDirs = map[string]bool{".git": true, ".gradle": true, ".idea": true, "build": true, "node_modules": true}

// RenderTree lists entries under root, indented two spaces per level, in
// lexical order. Entries deeper than maxDepth are left out.
func RenderTree(root string, maxDepth int) (string, error) {
	var lines []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		depth := len(strings.Split(filepath.ToSlash(rel), "/"))
		if depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		lines = append(lines, strings.Repeat("  ", depth)+d.Name())
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
