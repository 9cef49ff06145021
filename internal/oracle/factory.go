package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options selects and parameterizes a backend. It is passed explicitly so that
// nothing reads the process environment at call time.
type Options struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float32
	Timeout           time.Duration
	RequestsPerMinute int
	MaxPayloadBytes   int
}

// New builds the Client for opts.Provider. An empty or unknown provider is a
// ConfigurationError.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	var (
		backend Backend
		err     error
	)
	switch provider := strings.ToLower(strings.TrimSpace(opts.Provider)); provider {
	case "openai":
		backend, err = NewOpenAIBackend(opts.APIKey, opts.Model, opts.BaseURL, opts.Temperature, opts.Timeout)
	case "ollama":
		backend, err = NewOllamaBackend(opts.Model, opts.BaseURL, opts.Temperature, opts.Timeout)
	case "gemini":
		backend, err = NewGeminiBackend(ctx, opts.APIKey, opts.Model, opts.Temperature)
	case "":
		return nil, &ConfigurationError{Reason: "no oracle provider selected"}
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported oracle provider %q", opts.Provider)}
	}
	if err != nil {
		return nil, err
	}
	return NewClient(backend, opts.RequestsPerMinute, opts.MaxPayloadBytes, logger), nil
}
