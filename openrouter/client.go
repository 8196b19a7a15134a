package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part is one piece of a multimodal message: either text or an image URL
// (remote or data URL).
type Part struct {
	Text     string
	ImageURL string
}

// Message is a single role-tagged turn. Content is used for plain text turns;
// Parts takes precedence when non-empty.
type Message struct {
	Role    string
	Content string
	Parts   []Part
}

// ResponseFormat requests a schema-constrained answer from the model.
type ResponseFormat struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

// RequestOptions carries per-call overrides for the configured defaults.
type RequestOptions struct {
	ResponseFormat *ResponseFormat
	MaxTokens      int      // 0 keeps the configured default
	Temperature    *float32 // nil keeps the configured default
}

// Response is the validated result of a chat completion.
type Response struct {
	ID      string
	Model   string
	Content string
}

// APIError is a typed upstream failure classified from the HTTP status.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// ErrInvalidResponseFormat reports a 2xx body that does not match the
// expected completion shape. It is never retried.
var ErrInvalidResponseFormat = errors.New("invalid response format from model API")

// Config holds the gateway configuration, validated by New.
type Config struct {
	APIEndpoint string // chat completions endpoint or its /v1 base
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32

	// Optional attribution headers recognized by OpenRouter.
	HTTPReferer string
	AppTitle    string

	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

func (c *Config) validate() error {
	if c.APIEndpoint == "" {
		return errors.New("api endpoint is required")
	}
	if u, err := url.Parse(c.APIEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api endpoint %q is not a valid URL", c.APIEndpoint)
	}
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if c.Model == "" {
		return errors.New("model name is required")
	}
	if c.MaxTokens < 0 {
		return errors.New("max tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return errors.New("temperature must be between 0 and 1")
	}
	return nil
}

// Client talks to an OpenAI-compatible chat completions API (OpenRouter) and
// retries transient upstream failures with exponential backoff and jitter.
type Client struct {
	api    *openai.Client
	config Config
	logger *zap.Logger
}

// headerTransport injects the OpenRouter attribution headers on every request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}

// New validates the configuration and builds a gateway client. Invalid
// configuration fails fast here rather than at request time.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("openrouter: invalid configuration: %w", err)
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	// go-openai appends /chat/completions itself.
	clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/chat/completions")
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: config.HTTPReferer,
			title:   config.AppTitle,
		},
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// Model returns the configured default model name.
func (c *Client) Model() string {
	return c.config.Model
}

// SendRequest sends one chat completion request, retrying retryable failures
// up to the configured attempt ceiling. Attempts are strictly sequential.
func (c *Client) SendRequest(ctx context.Context, messages []Message, opts *RequestOptions) (*Response, error) {
	req := c.buildRequest(messages, opts)

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay(attempt - 1)):
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			classified := classifyError(err)
			lastErr = classified

			var apiErr *APIError
			if errors.As(classified, &apiErr) && !apiErr.Retryable {
				return nil, classified
			}
			continue
		}

		if resp.ID == "" || len(resp.Choices) == 0 {
			return nil, ErrInvalidResponseFormat
		}

		return &Response{
			ID:      resp.ID,
			Model:   resp.Model,
			Content: resp.Choices[0].Message.Content,
		}, nil
	}

	msg := c.sanitize(lastErr.Error())
	c.logger.Error("model request failed",
		zap.Int("attempts", c.config.MaxAttempts),
		zap.String("error", msg))
	return nil, fmt.Errorf("failed to send request after %d attempts: %s", c.config.MaxAttempts, msg)
}

func (c *Client) buildRequest(messages []Message, opts *RequestOptions) openai.ChatCompletionRequest {
	maxTokens := c.config.MaxTokens
	temperature := c.config.Temperature
	if opts != nil {
		if opts.MaxTokens != 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature != nil {
			temperature = *opts.Temperature
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    convertMessages(messages),
		MaxTokens:   clampInt(maxTokens, 1, 4096),
		Temperature: clampFloat(temperature, 0, 1),
	}

	if opts != nil && opts.ResponseFormat != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.ResponseFormat.Name,
				Schema: opts.ResponseFormat.Schema,
				Strict: opts.ResponseFormat.Strict,
			},
		}
	}

	return req
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if len(msg.Parts) == 0 {
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
			continue
		}

		multi := make([]openai.ChatMessagePart, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			if part.ImageURL != "" {
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    part.ImageURL,
						Detail: openai.ImageURLDetailAuto,
					},
				})
			} else {
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.Text,
				})
			}
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:         msg.Role,
			MultiContent: multi,
		})
	}
	return converted
}

// classifyError maps transport and upstream failures onto the retry taxonomy.
// Errors that carry no HTTP status (connection failures, timeouts) stay
// retryable.
func classifyError(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	} else if errors.As(err, &reqErr) {
		status = reqErr.HTTPStatusCode
	}
	if status == 0 {
		return &APIError{Message: err.Error(), Retryable: true}
	}

	switch {
	case status == http.StatusUnauthorized:
		return &APIError{StatusCode: status, Message: "invalid API key", Retryable: false}
	case status == http.StatusForbidden:
		return &APIError{StatusCode: status, Message: "access forbidden", Retryable: false}
	case status == http.StatusTooManyRequests:
		return &APIError{StatusCode: status, Message: "rate limit exceeded", Retryable: true}
	case status >= http.StatusInternalServerError:
		return &APIError{StatusCode: status, Message: "model API server error", Retryable: true}
	default:
		return &APIError{StatusCode: status, Message: "model API error", Retryable: false}
	}
}

// retryDelay returns the backoff before retrying after the given 0-indexed
// failed attempt: base·2^n plus up to 10% jitter, capped at the delay of the
// final attempt.
func (c *Client) retryDelay(failedAttempt int) time.Duration {
	base := c.config.RetryBaseDelay
	maxDelay := base << (c.config.MaxAttempts - 1)
	delay := base << failedAttempt
	delay += time.Duration(rand.Float64() * 0.1 * float64(delay))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// sanitize strips the API key from outbound error text.
func (c *Client) sanitize(msg string) string {
	return strings.ReplaceAll(msg, c.config.APIKey, "[REDACTED]")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
