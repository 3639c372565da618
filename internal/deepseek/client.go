// Package deepseek is a minimal client for the DeepSeek chat-completion API.
package deepseek

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

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.deepseek.com/v1"

const maxErrorBody = 64 << 10

// Client sends chat-completion requests.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets an overall per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete posts req with apiKey as bearer token and returns the content of
// the first choice. The response is checked against the schema before use.
func (c *Client) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("deepseek: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{Status: resp.StatusCode, Message: errorMessage(resp, body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &APIError{Status: resp.StatusCode, Message: "malformed response body: " + err.Error()}
	}
	return firstContent(resp.StatusCode, &out)
}

func firstContent(status int, r *Response) (string, error) {
	if len(r.Choices) == 0 {
		return "", &APIError{Status: status, Message: "response has no choices"}
	}
	msg := r.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", &APIError{Status: status, Message: "response choice has no message content"}
	}
	return *msg.Content, nil
}

// errorMessage prefers error.message from the body, then the status phrase.
func errorMessage(resp *http.Response, body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
