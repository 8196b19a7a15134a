package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(endpoint string) Config {
	return Config{
		APIEndpoint:    endpoint,
		APIKey:         "test-api-key",
		Model:          "test-model",
		RetryBaseDelay: time.Millisecond,
	}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := New(testConfig(endpoint), zap.NewNop())
	require.NoError(t, err)
	return client
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":    "chatcmpl-123",
		"model": "test-model",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
	return string(body)
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.APIEndpoint = "" }},
		{"malformed endpoint", func(c *Config) { c.APIEndpoint = "not a url" }},
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"negative max tokens", func(c *Config) { c.MaxTokens = -1 }},
		{"temperature too high", func(c *Config) { c.Temperature = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("https://openrouter.ai/api/v1")
			tt.mutate(&cfg)
			_, err := New(cfg, zap.NewNop())
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestNewAcceptsValidConfig(t *testing.T) {
	cfg := testConfig("https://openrouter.ai/api/v1/chat/completions")
	cfg.MaxTokens = 2000
	cfg.Temperature = 0.7

	client, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "test-model", client.Model())
}

func TestSendRequestRetryBoundOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SendRequest(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.ErrorContains(t, err, "after 3 attempts")
}

func TestSendRequestDoesNotRetryUnauthorized(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SendRequest(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, apiErr.Retryable)
}

func TestSendRequestRecoversAfterTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("hello")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.SendRequest(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, "chatcmpl-123", resp.ID)
	assert.Equal(t, "hello", resp.Content)
}

func TestSendRequestRejectsMalformedShape(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"","choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SendRequest(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)

	require.ErrorIs(t, err, ErrInvalidResponseFormat)
	assert.Equal(t, int32(1), attempts.Load(), "shape errors must not be retried")
}

func TestSendRequestSendsImageParts(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	messages := []Message{
		{Role: RoleSystem, Content: "extract vocabulary"},
		{Role: RoleUser, Parts: []Part{
			{Text: "read this page"},
			{ImageURL: "data:image/png;base64,aGVsbG8="},
		}},
	}
	_, err := client.SendRequest(context.Background(), messages, nil)
	require.NoError(t, err)

	sent, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, sent, 2)

	userTurn := sent[1].(map[string]interface{})
	parts := userTurn["content"].([]interface{})
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]interface{})["type"])
	assert.Equal(t, "image_url", parts[1].(map[string]interface{})["type"])
}

func TestBuildRequestClampsParameters(t *testing.T) {
	client := newTestClient(t, "https://openrouter.ai/api/v1")

	hot := float32(0.9)
	req := client.buildRequest(nil, &RequestOptions{MaxTokens: 100000, Temperature: &hot})
	assert.Equal(t, 4096, req.MaxTokens)
	assert.Equal(t, hot, req.Temperature)

	req = client.buildRequest(nil, nil)
	assert.Equal(t, 2000, req.MaxTokens, "defaults apply when no override is given")
}

func TestRetryDelayCapped(t *testing.T) {
	cfg := testConfig("https://openrouter.ai/api/v1")
	cfg.RetryBaseDelay = 10 * time.Millisecond
	cfg.MaxAttempts = 3
	client, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	maxDelay := cfg.RetryBaseDelay << 2
	for n := 0; n < 6; n++ {
		delay := client.retryDelay(n)
		assert.GreaterOrEqual(t, delay, cfg.RetryBaseDelay)
		assert.LessOrEqual(t, delay, maxDelay)
	}
}
