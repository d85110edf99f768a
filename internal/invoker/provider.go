// Package invoker - provider.go defines the upstream model abstraction.
//
// DESIGN: A Provider performs exactly one generation call and honours ctx
// cancellation. Two implementations exist:
//   - GenAIProvider: google.golang.org/genai SDK
//   - RESTProvider:  plain generateContent over HTTP (external.Client)
package invoker

import (
	"context"
	"encoding/json"

	"github.com/subdash/assistant-gateway/external"
)

// Provider roles for conversation turns.
const (
	TurnUser  = "user"
	TurnModel = "model"
)

// Turn is one provider-side conversation entry.
type Turn struct {
	Role string
	Text string
}

// GenerationConfig holds sampling parameters.
type GenerationConfig struct {
	Temperature      float64
	TopK             int
	TopP             float64
	MaxOutputTokens  int
	ResponseMIMEType string
	ResponseSchema   *external.GeminiSchema
}

// GenerateRequest is a provider-neutral generation call.
type GenerateRequest struct {
	Model             string
	SystemInstruction string
	Turns             []Turn
	Config            GenerationConfig
}

// GenerateResponse is the raw provider answer.
type GenerateResponse struct {
	Text        string
	Annotations []json.RawMessage
	// Usage is the provider's usage metadata object, verbatim.
	Usage json.RawMessage
}

// Provider performs one generation call.
type Provider interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// ProviderError carries the provider's own failure message. UpstreamStatus
// is the HTTP status of the failed call when the transport knows it.
type ProviderError struct {
	Message        string
	UpstreamStatus int
	Err            error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }
