package monitoring

import "strings"

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMTok  float64 // USD per million input tokens
	OutputPerMTok float64 // USD per million output tokens
}

// modelFamilyPricing maps Gemini model prefixes to list pricing.
var modelFamilyPricing = map[string]ModelPricing{
	"gemini-1.5-pro":        {InputPerMTok: 1.25, OutputPerMTok: 5},
	"gemini-1.5-flash":      {InputPerMTok: 0.075, OutputPerMTok: 0.30},
	"gemini-1.5-flash-8b":   {InputPerMTok: 0.0375, OutputPerMTok: 0.15},
	"gemini-2.0-flash":      {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	"gemini-2.0-flash-lite": {InputPerMTok: 0.075, OutputPerMTok: 0.30},
	"gemini-2.5-pro":        {InputPerMTok: 1.25, OutputPerMTok: 10},
	"gemini-2.5-flash":      {InputPerMTok: 0.30, OutputPerMTok: 2.50},
	"gemini-2.5-flash-lite": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
}

// defaultPricing is used for unknown models (the most expensive family).
var defaultPricing = ModelPricing{InputPerMTok: 1.25, OutputPerMTok: 10}

// GetModelPricing returns pricing for a model. The longest matching family
// prefix wins, so "gemini-1.5-flash-8b" never prices as "gemini-1.5-flash".
func GetModelPricing(model string) ModelPricing {
	model = strings.TrimPrefix(model, "models/")

	bestPrefix := ""
	var best ModelPricing
	for prefix, p := range modelFamilyPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			best = p
		}
	}
	if bestPrefix != "" {
		return best
	}
	return defaultPricing
}

// CalculateCost computes the cost in USD from token counts.
func CalculateCost(inputTokens, outputTokens int, pricing ModelPricing) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * pricing.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * pricing.OutputPerMTok
	return inputCost + outputCost
}
