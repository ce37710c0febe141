package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/johnquangdev/networking/pkg/config"
)

const (
	defaultModel     = "claude-3-sonnet-20240229"
	defaultMaxTokens = 1000
	defaultTimeout   = 30 * time.Second
)

// ErrMissingAPIKey is returned when no API key was configured
var ErrMissingAPIKey = errors.New("missing anthropic api key")

// Completer produces a text completion for a single user prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// APIError is an error response of the Anthropic API
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic returned status %d: %v", e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports rate limiting and server side failures, 529 overloaded included
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// AnthropicClient completes prompts with the Anthropic Messages API.
// The SDK does not retry; job retries are driven by the caller.
type AnthropicClient struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int
}

// NewAnthropicClient creates an Anthropic client from cfg
func NewAnthropicClient(cfg config.AnthropicConfig) *AnthropicClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Model returns the model name requests are sent with
func (a *AnthropicClient) Model() string {
	return a.model
}

// Complete sends prompt as a single user message and returns the text of the first text block
func (a *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("empty response from anthropic")
}
