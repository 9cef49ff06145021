// Package oracle is the narrow boundary to the text-generation service that
// plans, classifies and rewrites source for the migration pipeline.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Task discriminates the kind of request sent to the oracle.
type Task string

const (
	TaskPlan             Task = "plan"
	TaskClassify         Task = "classify"
	TaskRewriteBuildFile Task = "rewrite-build-file"
	TaskRewriteUnit      Task = "rewrite-source-unit"
)

// Oracle transforms an instruction payload into raw text. Implementations do
// not retry and enforce no schema on the response.
type Oracle interface {
	Transform(ctx context.Context, task Task, payload string) (string, error)
}

// Backend is one concrete generation service.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrEmptyResponse is wrapped in a TransportError when the backend answers
	// with nothing usable.
	ErrEmptyResponse = errors.New("empty response")
	// ErrPayloadTooLarge is returned when a caller did not truncate its payload.
	ErrPayloadTooLarge = errors.New("payload exceeds oracle input ceiling")
)

// TransportError reports an unreachable backend or a malformed response.
type TransportError struct {
	Provider string
	Task     Task
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle %s transport failure (%s): %v", e.Provider, e.Task, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or unrecognized backend selection.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "oracle misconfigured: " + e.Reason
}

// Client wraps a Backend with the payload ceiling, an optional rate limit and
// response cleanup.
type Client struct {
	backend    Backend
	limiter    *rate.Limiter
	maxPayload int
	logger     *zap.Logger
}

// NewClient wraps backend. requestsPerMinute <= 0 disables rate limiting and
// maxPayload <= 0 disables the ceiling.
func NewClient(backend Backend, requestsPerMinute, maxPayload int, logger *zap.Logger) *Client {
	c := &Client{
		backend:    backend,
		maxPayload: maxPayload,
		logger:     logger,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if requestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return c
}

func (c *Client) Transform(ctx context.Context, task Task, payload string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.maxPayload > 0 && len(payload) > c.maxPayload {
		return "", fmt.Errorf("%w: %d bytes > %d", ErrPayloadTooLarge, len(payload), c.maxPayload)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	text, err := c.backend.Generate(ctx, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &TransportError{Provider: c.backend.Name(), Task: task, Err: err}
	}

	text = cleanOutput(text)
	c.logger.Debug("oracle response",
		zap.String("provider", c.backend.Name()),
		zap.String("task", string(task)),
		zap.Int("payload_bytes", len(payload)),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	if text == "" {
		return "", &TransportError{Provider: c.backend.Name(), Task: task, Err: ErrEmptyResponse}
	}
	return text, nil
}

// cleanOutput strips surrounding whitespace and a single markdown code fence,
// which chat models add despite being told not to. Text after the closing
// fence is dropped.
func cleanOutput(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], " \t") {
		// Drop the language tag line ("```java").
		body = body[nl+1:]
	}
	// Anything after the closing fence is commentary.
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), "```"))
}
