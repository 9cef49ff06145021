package source

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Crawler walks a project tree for Java sources.
type Crawler struct {
	parser  *Parser
	ignored []string
	// outputs are build output directories, skipped only directly under root
	// so that packages named "build" or "target" are still scanned.
	outputs []string
}

func NewCrawler(p *Parser) *Crawler {
	return &Crawler{
		parser:  p,
		ignored: []string{".git", ".gradle", ".idea", "node_modules"},
		outputs: []string{"build", "out", "target"},
	}
}

// Scan walks root in lexical order and streams every parsed .java file to
// onUnit. Unlike a best-effort index, a unit that cannot be read aborts the
// scan: every discovered unit must be classified before rewriting starts.
func (c *Crawler) Scan(root string, onUnit func(*Unit) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			if filepath.Dir(path) == filepath.Clean(root) {
				for _, out := range c.outputs {
					if d.Name() == out {
						return filepath.SkipDir
					}
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}

		unit, err := c.parser.ParseFile(path)
		if err != nil {
			return err
		}
		return onUnit(unit)
	})
}
