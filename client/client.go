// Package client is a typed Go client for the fiszki API, including the
// generation-view state machine used to triage AI-proposed flashcards.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/fiszkiapp/fiszki-api/services"
)

// Client talks to a fiszki API server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string

	// OnUnauthorized, when set, is called once per request that the server
	// answers with 401, so the embedding application can drop its session.
	OnUnauthorized func()
}

// NewClient creates an API client authenticating with the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// RequestError is a non-2xx API answer carrying a user-facing message.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// GenerateFlashcards uploads an image and returns the generation result.
func (c *Client) GenerateFlashcards(ctx context.Context, filename string, data []byte, mimeType string) (*services.SessionResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generation-sessions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.notifyUnauthorized(resp.StatusCode)
		return nil, generateError(resp.StatusCode)
	}

	var result services.SessionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid response from server: %w", err)
	}
	return &result, nil
}

// LogFlashcardAction submits one triage decision for a session candidate.
func (c *Client) LogFlashcardAction(ctx context.Context, sessionID string, command services.FlashcardActionCommand) (*services.LogActionRecord, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/generation-sessions/%s/flashcard-actions", c.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		c.notifyUnauthorized(resp.StatusCode)
		return nil, actionError(resp.StatusCode, command.ActionType)
	}

	var record services.LogActionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("invalid response from server: %w", err)
	}
	return &record, nil
}

func (c *Client) notifyUnauthorized(status int) {
	if status == http.StatusUnauthorized && c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

func (c *Client) setAuth(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func generateError(status int) error {
	var message string
	switch status {
	case http.StatusRequestEntityTooLarge:
		message = "File is too large. Maximum size is 10MB."
	case http.StatusUnsupportedMediaType:
		message = "Invalid file type. Please select a JPEG or PNG image."
	case http.StatusTooManyRequests:
		message = "Too many requests. Please try again later."
	default:
		message = "Failed to generate flashcards. Please try again."
	}
	return &RequestError{StatusCode: status, Message: message}
}

func actionError(status int, actionType string) error {
	var message string
	switch status {
	case http.StatusBadRequest:
		if actionType == "edited" {
			message = "Invalid flashcard data. Please check your input and try again."
		} else {
			message = "Invalid request. Please try again."
		}
	case http.StatusNotFound:
		message = "Session not found. Please refresh the page and try again."
	case http.StatusTooManyRequests:
		message = "Too many requests. Please wait a moment and try again."
	case http.StatusInternalServerError:
		message = "Server error. Please try again later."
	default:
		message = "Failed to process flashcard action. Please try again."
	}
	return &RequestError{StatusCode: status, Message: message}
}
