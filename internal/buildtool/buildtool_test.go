package buildtool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, body string) {
	t.Helper()
	path := filepath.Join(dir, "gradlew")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func TestCommand_Build(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}

	t.Run("success", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, "echo BUILD SUCCESSFUL\n")

		out, err := NewCommand(nil, nil).Build(context.Background(), dir)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Contains(t, out.Output, "BUILD SUCCESSFUL")
	})

	t.Run("failure combines streams", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, "echo compiling\necho 'A.java:3: error: boom' >&2\nexit 1\n")

		out, err := NewCommand(nil, nil).Build(context.Background(), dir)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, 1, out.ExitCode)
		assert.Contains(t, out.Output, "compiling")
		assert.Contains(t, out.Output, "A.java:3: error: boom")
	})

	t.Run("missing wrapper", func(t *testing.T) {
		_, err := NewCommand(nil, nil).Build(context.Background(), t.TempDir())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, "sleep 5\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewCommand(nil, nil).Build(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUpgradeWrapper(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, WrapperProperties)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("distributionBase=GRADLE_USER_HOME\ndistributionUrl=https\\://services.gradle.org/distributions/gradle-6.9-bin.zip\nzipStorePath=wrapper/dists\n"), 0o644))

	require.NoError(t, UpgradeWrapper(root, "8.6"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "distributionBase=GRADLE_USER_HOME\ndistributionUrl=https\\://services.gradle.org/distributions/gradle-8.6-bin.zip\nzipStorePath=wrapper/dists\n", string(got))
}

func TestUpgradeWrapper_Missing(t *testing.T) {
	err := UpgradeWrapper(t.TempDir(), "8.6")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type stubOracle struct {
	reply   string
	payload string
}

func (s *stubOracle) Transform(ctx context.Context, task oracle.Task, payload string) (string, error) {
	s.payload = payload
	return s.reply, nil
}

func TestMigrateBuildFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte("sourceCompatibility = 1.8\n"), 0o644))

	o := &stubOracle{reply: "java { toolchain { languageVersion = JavaLanguageVersion.of(17) } }"}
	require.NoError(t, MigrateBuildFile(context.Background(), o, prompts.NewBuilder(plan.Default()), root))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, o.reply+"\n", string(got))
	assert.Contains(t, o.payload, "sourceCompatibility = 1.8")
	assert.Contains(t, o.payload, "Java 17")
}

func TestMigrateBuildFile_EmptyAnswerKeepsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	err := MigrateBuildFile(context.Background(), &stubOracle{reply: "  "}, prompts.NewBuilder(plan.Default()), root)
	require.Error(t, err)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "old\n", string(got))
}
