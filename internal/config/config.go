package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "javamig.yaml"

type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Classify ClassifyConfig `yaml:"classify"`
	Repair   RepairConfig   `yaml:"repair"`
	Build    BuildConfig    `yaml:"build"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

type OracleConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Temperature       float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
	MaxPayloadBytes   int           `yaml:"max_payload_bytes" validate:"gte=0"`
}

type ClassifyConfig struct {
	Policy   string `yaml:"policy" validate:"oneof=lenient strict"`
	MaxBytes int    `yaml:"max_bytes" validate:"gt=0"`
}

type RepairConfig struct {
	MaxIterations      int      `yaml:"max_iterations" validate:"gte=1"`
	MaxAttemptsPerUnit int      `yaml:"max_attempts_per_unit" validate:"gte=0"`
	BuildCommand       []string `yaml:"build_command" validate:"min=1,dive,required"`
	DiagnosticPattern  string   `yaml:"diagnostic_pattern"`
}

type BuildConfig struct {
	GradleVersion string `yaml:"gradle_version" validate:"required"`
}

type LedgerConfig struct {
	// Path of the SQLite run ledger. Empty disables recording.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider:        "openai",
			Temperature:     0,
			Timeout:         120 * time.Second,
			MaxPayloadBytes: 200_000,
		},
		Classify: ClassifyConfig{
			Policy:   "lenient",
			MaxBytes: 8000,
		},
		Repair: RepairConfig{
			MaxIterations: 5,
			BuildCommand:  []string{"./gradlew", "build"},
		},
		Build: BuildConfig{
			GradleVersion: "8.6",
		},
		Ledger: LedgerConfig{
			Path: "javamig.db",
		},
	}
}

// LoadConfig reads .env (if any), then the YAML file at path over the defaults,
// then environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	provider := strings.ToLower(strings.TrimSpace(c.Oracle.Provider))

	switch provider {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.Oracle.APIKey = v
		}
		if v := os.Getenv("OPENAI_MODEL"); v != "" {
			c.Oracle.Model = v
		}
		if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
			c.Oracle.BaseURL = v
		}
	case "ollama":
		if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
			c.Oracle.BaseURL = v
		}
		if v := os.Getenv("OLLAMA_MODEL"); v != "" {
			c.Oracle.Model = v
		}
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Oracle.APIKey = v
		}
		if v := os.Getenv("GEMINI_MODEL"); v != "" {
			c.Oracle.Model = v
		}
	}

	if v := os.Getenv("JAVAMIG_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JAVAMIG_MAX_ITERATIONS %q: %w", v, err)
		}
		c.Repair.MaxIterations = n
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges. Provider selection is checked later, when the
// oracle is constructed, so that commands which never call the oracle still run.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
