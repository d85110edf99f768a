// Gemini REST client.
//
// USAGE:
//   - NewClient(endpoint, apiKey, httpClient)
//   - Client.GenerateContent(ctx, model, req)
//
// The request is bound to ctx: cancelling ctx aborts the HTTP round trip.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// APIError is a non-success answer from the Gemini API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API error (%d): %s", e.StatusCode, e.Message)
}

// HTTPStatusCode returns the HTTP status of the failed call.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

// Client calls models/{model}:generateContent.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a REST client. A nil httpClient uses http.DefaultClient.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = config.DefaultGeminiEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// GenerateContent sends one generateContent call.
func (c *Client) GenerateContent(ctx context.Context, model string, req *GeminiRequest) (*GeminiResponse, error) {
	body, err := utils.MarshalNoEscape(req)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	var out GeminiResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode >= 400 || out.Error != nil {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && out.Error != nil {
			apiErr.Status = out.Error.Status
			if out.Error.Message != "" {
				apiErr.Message = out.Error.Message
			}
		}
		log.Debug().
			Int("status", resp.StatusCode).
			Str("model", model).
			Str("body", utils.Truncate(string(data), config.MaxErrorBodyLogLen)).
			Msg("gemini: upstream error")
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode gemini response: %w", decodeErr)
	}
	return &out, nil
}
