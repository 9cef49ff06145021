package rewriter

import (
	"fmt"
	"strings"

	"javamig/internal/source"
)

// EmptyRewriteError means the oracle returned nothing but whitespace.
type EmptyRewriteError struct {
	Path string
}

func (e *EmptyRewriteError) Error() string {
	return fmt.Sprintf("rewrite of %s is empty", e.Path)
}

// NamespaceMismatchError means the original package declaration is missing
// from the candidate.
type NamespaceMismatchError struct {
	Path string
	Want string
}

func (e *NamespaceMismatchError) Error() string {
	return fmt.Sprintf("rewrite of %s lost package declaration %q", e.Path, e.Want)
}

// TypeMismatchError means the original primary type declaration is missing
// from the candidate.
type TypeMismatchError struct {
	Path string
	Want string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("rewrite of %s lost type declaration %q", e.Path, e.Want)
}

// OversizedUnitError means the unit alone does not fit the oracle input
// ceiling, so it cannot be rewritten at all.
type OversizedUnitError struct {
	Path  string
	Bytes int
	Limit int
}

func (e *OversizedUnitError) Error() string {
	if e.Limit <= 0 {
		return fmt.Sprintf("%s does not fit the oracle input ceiling (%d bytes)", e.Path, e.Bytes)
	}
	return fmt.Sprintf("%s does not fit the oracle input ceiling (%d > %d bytes)", e.Path, e.Bytes, e.Limit)
}

// Guard checks that candidate keeps the public identity of original. The
// checks are textual only and say nothing about whether the code compiles.
func Guard(original *source.Unit, candidate string) error {
	if strings.TrimSpace(candidate) == "" {
		return &EmptyRewriteError{Path: original.Path}
	}
	if original.Namespace != "" && !strings.Contains(candidate, original.Namespace) {
		return &NamespaceMismatchError{Path: original.Path, Want: original.Namespace}
	}
	if original.TypeDecl != "" && !strings.Contains(candidate, original.TypeDecl) {
		return &TypeMismatchError{Path: original.Path, Want: original.TypeDecl}
	}
	return nil
}
