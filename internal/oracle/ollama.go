package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

// OllamaBackend talks to a local /api/generate endpoint.
type OllamaBackend struct {
	client      *http.Client
	model       string
	endpoint    string
	temperature float32
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaBackend(model, baseURL string, temperature float32, timeout time.Duration) (*OllamaBackend, error) {
	if strings.TrimSpace(model) == "" {
		return nil, &ConfigurationError{Reason: "ollama model is required"}
	}
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultOllamaURL
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/generate") {
		url += "/api/generate"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OllamaBackend{
		client:      &http.Client{Timeout: timeout},
		model:       model,
		endpoint:    url,
		temperature: temperature,
	}, nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

func (b *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   b.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": b.temperature},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama generate request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	return parsed.Response, nil
}
