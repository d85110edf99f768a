// Gemini generateContent request/response types.
//
// These types are used by:
//   - gemini_client.go: Client.GenerateContent() for direct REST calls
//   - internal/invoker: RESTProvider maps requests onto them
package external

import "encoding/json"

// =============================================================================
// Request Types
// =============================================================================

// GeminiPart represents a content part in Gemini format.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiContent represents a content block in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiSchema is the OpenAPI subset accepted as a response schema.
// Type values are upper-case: OBJECT, ARRAY, STRING, NUMBER, BOOLEAN.
type GeminiSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`
	Items      *GeminiSchema            `json:"items,omitempty"`
	Required   []string                 `json:"required,omitempty"`
	Enum       []string                 `json:"enum,omitempty"`
}

// GeminiGenerationConfig contains generation parameters.
type GeminiGenerationConfig struct {
	Temperature      float64       `json:"temperature"`
	TopK             int           `json:"topK,omitempty"`
	TopP             float64       `json:"topP,omitempty"`
	MaxOutputTokens  int           `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

// GeminiRequest is the request body for Gemini generateContent API.
type GeminiRequest struct {
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent         `json:"contents"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// GeminiCandidate is one generated alternative.
type GeminiCandidate struct {
	Content struct {
		Parts []GeminiPart `json:"parts"`
	} `json:"content"`
	FinishReason     string            `json:"finishReason,omitempty"`
	CitationMetadata json.RawMessage   `json:"citationMetadata,omitempty"`
	SafetyRatings    []json.RawMessage `json:"safetyRatings,omitempty"`
}

// GeminiResponse is the response from Gemini generateContent API.
// UsageMetadata stays raw: token field names differ across API versions.
type GeminiResponse struct {
	Candidates    []GeminiCandidate `json:"candidates"`
	UsageMetadata json.RawMessage   `json:"usageMetadata,omitempty"`
	Error         *GeminiError      `json:"error,omitempty"`
}

// GeminiError is the error object of a failed call.
type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Text concatenates the text parts of the first candidate.
func (r *GeminiResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}
