package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedOracle answers classify requests by the first matching file marker.
type scriptedOracle struct {
	answers  map[string]string
	fallback string
	err      error
	payloads []string
}

func (s *scriptedOracle) Transform(ctx context.Context, task oracle.Task, payload string) (string, error) {
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return "", s.err
	}
	for marker, answer := range s.answers {
		if strings.Contains(payload, marker) {
			return answer, nil
		}
	}
	return s.fallback, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Classification
		ok   bool
	}{
		{"MAJOR_REWRITE", MajorRewrite, true},
		{"  minor_fix\n", MinorFix, true},
		{"no change.", NoChange, true},
		{"`REMOVE`", Remove, true},
		{"Major-Rewrite", MajorRewrite, true},
		{"3. MAJOR_REWRITE", MajorRewrite, true},
		{"Classification: MINOR_FIX (imports)", MinorFix, true},
		{"NO_CHANGE or MINOR_FIX", "", false},
		{"I cannot decide", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyTree_OneValidKeyPerUnit(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 7; i++ {
		files[fmt.Sprintf("com/acme/C%d.java", i)] = fmt.Sprintf("package com.acme;\nclass C%d {}\n", i)
	}
	files["README.md"] = "not java"
	root := writeTree(t, files)

	o := &scriptedOracle{
		answers: map[string]string{
			"class C1 ": "MAJOR_REWRITE",
			"class C2 ": "minor fix",
			"class C3 ": "REMOVE",
			"class C4 ": "who knows",
		},
		fallback: "NO_CHANGE",
	}
	c := New(o, Options{Plan: plan.Default()})

	var seen int
	m, err := c.ClassifyTree(context.Background(), source.NewCrawler(source.NewParser()), root, func(string, Classification) { seen++ })
	require.NoError(t, err)

	assert.Len(t, m, 7)
	assert.Equal(t, 7, seen)
	for path, cl := range m {
		assert.True(t, strings.HasPrefix(path, root), path)
		assert.True(t, cl.Valid(), "%s -> %s", path, cl)
	}
	assert.Equal(t, MajorRewrite, m[filepath.Join(root, "com/acme/C1.java")])
	assert.Equal(t, MinorFix, m[filepath.Join(root, "com/acme/C2.java")])
	assert.Equal(t, NoChange, m[filepath.Join(root, "com/acme/C4.java")], "lenient policy falls back")
}

func TestClassify_StrictPolicy(t *testing.T) {
	o := &scriptedOracle{fallback: "Looks fine to me"}
	c := New(o, Options{Plan: plan.Default(), Policy: PolicyStrict})

	_, err := c.Classify(context.Background(), &source.Unit{Path: "A.java", Content: "class A {}"})
	var ue *UnrecognizedClassificationError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Looks fine to me", ue.Raw)
	assert.Equal(t, "A.java", ue.Path)
}

func TestClassify_TruncatesContent(t *testing.T) {
	o := &scriptedOracle{fallback: "NO_CHANGE"}
	c := New(o, Options{Plan: plan.Default(), MaxBytes: 16})

	body := "class Big {}" + strings.Repeat("/* padding */", 100) + "TAIL_MARKER"
	_, err := c.Classify(context.Background(), &source.Unit{Path: "Big.java", Content: body})
	require.NoError(t, err)

	require.Len(t, o.payloads, 1)
	assert.Contains(t, o.payloads[0], body[:16])
	assert.NotContains(t, o.payloads[0], "TAIL_MARKER")
}

func TestClassifyTree_OracleFailureAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A.java": "class A {}",
		"B.java": "class B {}",
	})
	transport := &oracle.TransportError{Provider: "fake", Task: oracle.TaskClassify, Err: errors.New("down")}
	c := New(&scriptedOracle{err: transport}, Options{Plan: plan.Default()})

	m, err := c.ClassifyTree(context.Background(), source.NewCrawler(source.NewParser()), root, nil)
	assert.Nil(t, m)
	var te *oracle.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestMapping_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "classification.json")
	m := Mapping{
		"/p/A.java": MajorRewrite,
		"/p/B.java": NoChange,
		"/p/C.java": MajorRewrite,
	}
	require.NoError(t, SaveMapping(path, m))

	got, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, []string{"/p/A.java", "/p/C.java"}, got.Select(MajorRewrite))
	assert.Equal(t, 2, got.Counts()[MajorRewrite])
}

func TestLoadMapping_KeepsUnknownValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"/p/A.java":"major rewrite","/p/B.java":"Hmm, maybe"}`), 0o644))

	got, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, MajorRewrite, got["/p/A.java"])
	assert.Equal(t, Classification("Hmm, maybe"), got["/p/B.java"])
	assert.Empty(t, got.Select(NoChange))
}
