package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GenAIProvider generates content through the Gemini SDK.
type GenAIProvider struct {
	client *genai.Client
}

// NewGenAIProvider creates an SDK-backed provider.
func NewGenAIProvider(ctx context.Context, apiKey string) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("genai: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIProvider{client: client}, nil
}

// Generate implements Provider.
func (p *GenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, t := range req.Turns {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Config.Temperature)),
		TopK:             genai.Ptr(float32(req.Config.TopK)),
		TopP:             genai.Ptr(float32(req.Config.TopP)),
		MaxOutputTokens:  int32(req.Config.MaxOutputTokens),
		ResponseMIMEType: req.Config.ResponseMIMEType,
		ResponseSchema:   toGenAISchema(req.Config.ResponseSchema),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, &ProviderError{Message: err.Error(), Err: err}
	}
	return fromGenAIResponse(resp), nil
}

func fromGenAIResponse(resp *genai.GenerateContentResponse) *GenerateResponse {
	out := &GenerateResponse{}
	if resp == nil {
		return out
	}
	if resp.UsageMetadata != nil {
		if raw, err := json.Marshal(resp.UsageMetadata); err == nil {
			out.Usage = raw
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part != nil {
				out.Text += part.Text
			}
		}
	}
	switch {
	case cand.CitationMetadata != nil:
		if raw, err := json.Marshal(cand.CitationMetadata); err == nil {
			out.Annotations = []json.RawMessage{raw}
		}
	case len(cand.SafetyRatings) > 0:
		for _, r := range cand.SafetyRatings {
			if raw, err := json.Marshal(r); err == nil {
				out.Annotations = append(out.Annotations, raw)
			}
		}
	}
	return out
}
