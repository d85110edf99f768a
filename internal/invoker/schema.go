package invoker

import (
	"google.golang.org/genai"

	"github.com/subdash/assistant-gateway/external"
)

// toGenAISchema converts the REST schema into the SDK representation.
func toGenAISchema(s *external.GeminiSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:     genai.Type(s.Type),
		Items:    toGenAISchema(s.Items),
		Required: s.Required,
		Enum:     s.Enum,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	return out
}
