package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// Parser extracts the structural identity of Java files using tree-sitter.
type Parser struct {
	lang *sitter.Language
}

func NewParser() *Parser {
	return &Parser{lang: java.GetLanguage()}
}

// ParseFile reads and parses the file at path. The returned error wraps
// fs.ErrNotExist when the file is missing.
func (p *Parser) ParseFile(path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return p.Parse(path, content)
}

// Parse builds a Unit from in-memory content. Syntax errors do not fail the
// parse; whatever declarations tree-sitter recovers are used.
func (p *Parser) Parse(path string, content []byte) (*Unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	unit := &Unit{Path: path, Content: string(content)}
	lines := strings.Split(unit.Content, "\n")

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch {
		case node.Type() == "package_declaration" && unit.Namespace == "":
			unit.Namespace = strings.TrimSpace(node.Content(content))
		case typeDeclarations[node.Type()] && unit.TypeName == "":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			unit.TypeName = nameNode.Content(content)
			unit.TypeDecl = declarationLine(lines, int(nameNode.StartPoint().Row))
		}
	}
	return unit, nil
}

func declarationLine(lines []string, row int) string {
	if row < 0 || row >= len(lines) {
		return ""
	}
	line, _, _ := strings.Cut(lines[row], "{")
	return strings.TrimSpace(line)
}
