// Package assistant is the client side of the gateway: an HTTP client, a
// conversational Session with its suggestion state machine, and the
// prompt/snapshot builders the dashboard assistant sends upstream.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// ChatRequest is the body of POST /gateway/chat.
type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	Context  *domain.ChatContext  `json:"context,omitempty"`
}

// ReplyMessage is the assistant message of a chat response.
type ReplyMessage struct {
	Role        domain.Role       `json:"role"`
	Content     string            `json:"content"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
}

// ChatResponse is the success body of POST /gateway/chat.
type ChatResponse struct {
	Message ReplyMessage      `json:"message"`
	Usage   *domain.UsageMeta `json:"usage,omitempty"`
}

// SuggestionsRequest is the body of POST /gateway/suggestions.
type SuggestionsRequest struct {
	Subscriptions []domain.SubscriptionSnapshotItem `json:"subscriptions"`
	Preferences   *domain.Preferences               `json:"preferences,omitempty"`
}

// SuggestionsResponse is the success body of POST /gateway/suggestions.
type SuggestionsResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Summary     string              `json:"summary,omitempty"`
	Usage       *domain.UsageMeta   `json:"usage,omitempty"`
}

// APIError is a non-2xx gateway answer.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Backend is what a Session talks to.
type Backend interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Suggestions(ctx context.Context, req SuggestionsRequest) (*SuggestionsResponse, error)
}

// Client calls a running gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Chat implements Backend.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, "/gateway/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggestions implements Backend.
func (c *Client) Suggestions(ctx context.Context, req SuggestionsRequest) (*SuggestionsResponse, error) {
	var out SuggestionsResponse
	if err := c.post(ctx, "/gateway/suggestions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := utils.MarshalNoEscape(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError prefers error.message, then a top-level message.
func decodeAPIError(status int, data []byte) *APIError {
	e := &APIError{Status: status}
	if gjson.ValidBytes(data) {
		root := gjson.ParseBytes(data)
		e.Code = root.Get("error.code").String()
		if msg := root.Get("error.message").String(); msg != "" {
			e.Message = msg
		} else {
			e.Message = root.Get("message").String()
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with %d", status)
	}
	return e
}
