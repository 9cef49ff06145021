// Package source discovers and parses the Java compilation units of a legacy
// project.
package source

import "unicode/utf8"

// Unit is one migratable source file. It is read once per pipeline pass and
// not modified afterwards.
type Unit struct {
	// Path identifies the unit. It is the file path as discovered under the
	// scanned root.
	Path    string
	Content string

	// Namespace is the package declaration ("package com.acme.web;"), empty
	// for the default package.
	Namespace string
	// TypeName is the simple name of the first top-level type.
	TypeName string
	// TypeDecl is the source line declaring TypeName, cut before its body
	// delimiter and trimmed ("public class OrderController extends Base").
	TypeDecl string
}

// Truncate returns at most max bytes of s without splitting a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
