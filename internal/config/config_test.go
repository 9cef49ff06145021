package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OLLAMA_BASE_URL", "OLLAMA_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL", "JAVAMIG_MAX_ITERATIONS"} {
		t.Setenv(k, "")
	}
	// godotenv.Load reads .env from the working directory.
	t.Chdir(t.TempDir())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 5, cfg.Repair.MaxIterations)
	assert.Equal(t, 8000, cfg.Classify.MaxBytes)
	assert.Equal(t, []string{"./gradlew", "build"}, cfg.Repair.BuildCommand)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "javamig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oracle:
  provider: ollama
  model: llama3
  timeout: 30s
classify:
  policy: strict
repair:
  max_iterations: 3
`), 0o644))

	t.Setenv("OLLAMA_MODEL", "qwen2.5-coder")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")
	t.Setenv("JAVAMIG_MAX_ITERATIONS", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Oracle.Provider)
	assert.Equal(t, "qwen2.5-coder", cfg.Oracle.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Oracle.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, "strict", cfg.Classify.Policy)
	assert.Equal(t, 7, cfg.Repair.MaxIterations)
	assert.Equal(t, 8000, cfg.Classify.MaxBytes, "unset keys keep defaults")
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown policy", "classify:\n  policy: sloppy\n"},
		{"zero iterations", "repair:\n  max_iterations: 0\n"},
		{"bad base url", "oracle:\n  base_url: \"not a url\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "javamig.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_BadIterationEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JAVAMIG_MAX_ITERATIONS", "many")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
