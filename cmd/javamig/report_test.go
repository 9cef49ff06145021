package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"javamig/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	ctx := context.Background()
	l, err := storage.NewSQLiteLedger(filepath.Join(t.TempDir(), "javamig.db"))
	require.NoError(t, err)
	defer l.Close()

	id, err := l.BeginRun(ctx, "validate")
	require.NoError(t, err)
	require.NoError(t, l.SaveClassifications(ctx, id, map[string]string{
		"A.java": "MAJOR_REWRITE",
		"B.java": "NO_CHANGE",
		"C.java": "MAJOR_REWRITE",
	}))
	require.NoError(t, l.RecordBuild(ctx, id, 1, false, "A.java:1: error"))
	require.NoError(t, l.RecordAttempt(ctx, id, 1, "A.java", "rejected", "rewrite of A.java is empty"))
	require.NoError(t, l.RecordBuild(ctx, id, 2, true, "BUILD SUCCESSFUL"))
	require.NoError(t, l.FinishRun(ctx, id, "SUCCESS"))

	var buf bytes.Buffer
	require.NoError(t, writeReport(ctx, &buf, l, id))
	out := buf.String()

	assert.Contains(t, out, "Run "+id+" (validate): SUCCESS")
	assert.Contains(t, out, "Builds: 2")
	assert.Contains(t, out, "3 units classified")
	assert.Contains(t, out, "MAJOR_REWRITE: 2")
	assert.Contains(t, out, "NO_CHANGE: 1")
	assert.Contains(t, out, "[1] A.java: rejected (rewrite of A.java is empty)")
}

func TestWriteReport_UnknownRun(t *testing.T) {
	l, err := storage.NewSQLiteLedger(filepath.Join(t.TempDir(), "javamig.db"))
	require.NoError(t, err)
	defer l.Close()

	var buf bytes.Buffer
	assert.Error(t, writeReport(context.Background(), &buf, l, "missing"))
	assert.Empty(t, buf.String())
}
