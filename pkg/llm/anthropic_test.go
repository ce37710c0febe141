package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/jobcontext"
)

type sentMessage struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func TestComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var payload sentMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "claude-test", payload.Model)
		assert.Equal(t, 1000, payload.MaxTokens)
		require.Len(t, payload.Messages, 1)
		assert.Equal(t, "user", payload.Messages[0].Role)
		require.Len(t, payload.Messages[0].Content, 1)
		assert.Equal(t, "hello", payload.Messages[0].Content[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"ok\":true}"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer ts.Close()

	client := NewAnthropicClient(config.AnthropicConfig{APIKey: "test-key", BaseURL: ts.URL + "/", Model: "claude-test"})
	out, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "claude-test", client.Model())
}

func TestComplete_ErrorStatus(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{name: "overloaded", status: 529, body: `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, retryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, retryable: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := NewAnthropicClient(config.AnthropicConfig{APIKey: "k", BaseURL: ts.URL})
			_, err := client.Complete(context.Background(), "hello")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.retryable, jobcontext.IsRetryableError(err))
			assert.Equal(t, 1, calls)
		})
	}
}

func TestComplete_MissingKey(t *testing.T) {
	client := NewAnthropicClient(config.AnthropicConfig{})
	_, err := client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, defaultModel, client.Model())
}
