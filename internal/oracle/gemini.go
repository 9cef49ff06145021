package oracle

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend uses the Gemini API through the genai SDK.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiBackend(ctx context.Context, apiKey, model string, temperature float32) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{Reason: "gemini api key is required"}
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ConfigurationError{Reason: "failed to create genai client: " + err.Error()}
	}
	return &GeminiBackend{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(b.temperature),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
