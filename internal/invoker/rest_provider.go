package invoker

import (
	"context"
	"errors"
	"net/http"

	"github.com/subdash/assistant-gateway/external"
)

// RESTProvider generates content through the plain HTTP API.
type RESTProvider struct {
	client *external.Client
}

// NewRESTProvider creates an HTTP-backed provider.
func NewRESTProvider(endpoint, apiKey string, httpClient *http.Client) *RESTProvider {
	return &RESTProvider{client: external.NewClient(endpoint, apiKey, httpClient)}
}

// Generate implements Provider.
func (p *RESTProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body := &external.GeminiRequest{
		Contents: make([]external.GeminiContent, 0, len(req.Turns)),
		GenerationConfig: &external.GeminiGenerationConfig{
			Temperature:      req.Config.Temperature,
			TopK:             req.Config.TopK,
			TopP:             req.Config.TopP,
			MaxOutputTokens:  req.Config.MaxOutputTokens,
			ResponseMIMEType: req.Config.ResponseMIMEType,
			ResponseSchema:   req.Config.ResponseSchema,
		},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &external.GeminiContent{Parts: []external.GeminiPart{{Text: req.SystemInstruction}}}
	}
	for _, t := range req.Turns {
		body.Contents = append(body.Contents, external.GeminiContent{
			Role:  t.Role,
			Parts: []external.GeminiPart{{Text: t.Text}},
		})
	}

	resp, err := p.client.GenerateContent(ctx, req.Model, body)
	if err != nil {
		var apiErr *external.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Message: apiErr.Message, UpstreamStatus: apiErr.HTTPStatusCode(), Err: err}
		}
		return nil, err
	}

	out := &GenerateResponse{Text: resp.Text(), Usage: resp.UsageMetadata}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if len(cand.CitationMetadata) > 0 && string(cand.CitationMetadata) != "null" {
			out.Annotations = append(out.Annotations, cand.CitationMetadata)
		} else if len(cand.SafetyRatings) > 0 {
			out.Annotations = cand.SafetyRatings
		}
	}
	return out, nil
}
