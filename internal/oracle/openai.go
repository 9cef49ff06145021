package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4.1-mini"

// OpenAIBackend talks to a hosted chat-completion endpoint.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIBackend builds a chat-completion backend. baseURL may point at any
// OpenAI compatible server; it is expected to include the /v1 prefix.
func NewOpenAIBackend(apiKey, model, baseURL string, temperature float32, timeout time.Duration) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{Reason: "openai api key is required"}
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(baseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}, nil
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: b.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
