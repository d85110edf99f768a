package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent_Success(t *testing.T) {
	var got GeminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Hello "}, {"text": "there"}]},
				"safetyRatings": [{"category": "HARM_CATEGORY_HARASSMENT", "probability": "NEGLIGIBLE"}]}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 2}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1beta/", "test-key", srv.Client())
	resp, err := c.GenerateContent(context.Background(), "gemini-1.5-pro", &GeminiRequest{
		SystemInstruction: &GeminiContent{Parts: []GeminiPart{{Text: "be nice"}}},
		Contents:          []GeminiContent{{Role: "user", Parts: []GeminiPart{{Text: "hi <there>"}}}},
		GenerationConfig:  &GeminiGenerationConfig{Temperature: 0.6, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Text())
	assert.Len(t, resp.Candidates[0].SafetyRatings, 1)
	assert.JSONEq(t, `{"promptTokenCount": 10, "candidatesTokenCount": 2}`, string(resp.UsageMetadata))

	assert.Equal(t, "hi <there>", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 40, got.GenerationConfig.TopK)
}

func TestGenerateContent_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", srv.Client())
	_, err := c.GenerateContent(context.Background(), "m", &GeminiRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatusCode())
	assert.Equal(t, "API key not valid", apiErr.Message)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Status)
}

func TestGenerateContent_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", srv.Client()).GenerateContent(context.Background(), "m", &GeminiRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestGenerateContent_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, "k", srv.Client()).GenerateContent(ctx, "m", &GeminiRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiResponse_TextEmpty(t *testing.T) {
	var r *GeminiResponse
	assert.Empty(t, r.Text())
	assert.Empty(t, (&GeminiResponse{}).Text())
}
