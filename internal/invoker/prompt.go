package invoker

import (
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/subdash/assistant-gateway/external"
	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// =============================================================================
// GENERATION PROFILES
// =============================================================================

// ChatGeneration is the balanced conversational profile.
var ChatGeneration = GenerationConfig{
	Temperature:     0.6,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 2048,
}

// SuggestionsGeneration is the deterministic structured-output profile.
var SuggestionsGeneration = GenerationConfig{
	Temperature:      0.2,
	TopK:             20,
	TopP:             0.9,
	MaxOutputTokens:  1024,
	ResponseMIMEType: "application/json",
	ResponseSchema:   SuggestionsSchema,
}

// SuggestionsSchema mirrors domain.Suggestion.
var SuggestionsSchema = &external.GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*external.GeminiSchema{
		"suggestions": {
			Type: "ARRAY",
			Items: &external.GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*external.GeminiSchema{
					"type":        {Type: "STRING"},
					"title":       {Type: "STRING"},
					"description": {Type: "STRING"},
					"targetIds":   {Type: "ARRAY", Items: &external.GeminiSchema{Type: "STRING"}},
					"impactEstimate": {
						Type: "OBJECT",
						Properties: map[string]*external.GeminiSchema{
							"currency": {Type: "STRING"},
							"monthly":  {Type: "NUMBER"},
							"yearly":   {Type: "NUMBER"},
						},
					},
					"confidence": {Type: "STRING", Enum: []string{"low", "medium", "high"}},
					"actions": {
						Type: "ARRAY",
						Items: &external.GeminiSchema{
							Type: "OBJECT",
							Properties: map[string]*external.GeminiSchema{
								"type":     {Type: "STRING"},
								"label":    {Type: "STRING"},
								"targetId": {Type: "STRING"},
							},
							Required: []string{"type", "label"},
						},
					},
				},
				Required: []string{"type", "title", "description", "targetIds"},
			},
		},
		"summary": {Type: "STRING"},
	},
	Required: []string{"suggestions"},
}

// =============================================================================
// CHAT
// =============================================================================

// MsgNoMessages is reported when only system messages remain.
const MsgNoMessages = "No valid messages provided"

// TurnRole maps a chat role onto the provider's two-role vocabulary.
func TurnRole(r domain.Role) string {
	if r == domain.RoleAssistant {
		return TurnModel
	}
	return TurnUser
}

// ChatSystemInstruction joins system message texts, then the context hints.
func ChatSystemInstruction(msgs []domain.ChatMessage, ctx *domain.ChatContext) string {
	var parts []string
	var system []string
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
		}
	}
	if len(system) > 0 {
		parts = append(parts, strings.Join(system, "\n"))
	}
	if ctx != nil {
		if ctx.Timezone != "" {
			parts = append(parts, "Timezone: "+ctx.Timezone)
		}
		if ctx.Currency != "" {
			parts = append(parts, "Currency: "+ctx.Currency)
		}
		if ctx.Locale != "" {
			parts = append(parts, "Locale: "+ctx.Locale)
		}
	}
	return strings.Join(parts, "\n")
}

// BuildChatRequest converts a sanitized conversation into a provider call.
func BuildChatRequest(model string, msgs []domain.ChatMessage, ctx *domain.ChatContext) (*GenerateRequest, error) {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			continue
		}
		turns = append(turns, Turn{Role: TurnRole(m.Role), Text: utils.Truncate(m.Content, config.MaxContentLen)})
	}
	if len(turns) == 0 {
		return nil, domain.BadRequest(MsgNoMessages)
	}
	return &GenerateRequest{
		Model:             model,
		SystemInstruction: ChatSystemInstruction(msgs, ctx),
		Turns:             turns,
		Config:            ChatGeneration,
	}, nil
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// MsgNoSubscriptions is reported for an empty snapshot.
const MsgNoSubscriptions = "No valid subscriptions provided"

// SuggestionsSystemInstruction constrains the structured-output model.
var SuggestionsSystemInstruction = strings.Join([]string{
	"You are a subscription optimization assistant.",
	"Produce concise, deterministic suggestions strictly following the provided JSON schema.",
	"Never include fields not defined in the schema.",
	"Ground all suggestions in the provided subscriptions snapshot only.",
}, "\n")

// sampledAtLayout matches ISO-8601 with milliseconds in UTC.
const sampledAtLayout = "2006-01-02T15:04:05.000Z07:00"

// SuggestionsPayload builds {snapshot, preferences, sampledAt}. Preference
// keys are present only when set.
func SuggestionsPayload(subs []domain.SubscriptionSnapshotItem, prefs *domain.Preferences, sampledAt time.Time) (string, error) {
	snapshot, err := utils.MarshalNoEscape(subs)
	if err != nil {
		return "", err
	}

	payload, err := sjson.SetRaw(`{}`, "snapshot", string(snapshot))
	if err != nil {
		return "", err
	}
	if payload, err = sjson.SetRaw(payload, "preferences", `{}`); err != nil {
		return "", err
	}
	if prefs != nil {
		fields := []struct {
			key string
			val any
			set bool
		}{
			{"defaultCurrency", prefs.DefaultCurrency, prefs.DefaultCurrency != ""},
			{"savingsGoal", prefs.SavingsGoal, prefs.SavingsGoal != nil},
			{"locale", prefs.Locale, prefs.Locale != ""},
			{"timezone", prefs.Timezone, prefs.Timezone != ""},
		}
		for _, f := range fields {
			if !f.set {
				continue
			}
			if payload, err = sjson.Set(payload, "preferences."+f.key, f.val); err != nil {
				return "", err
			}
		}
	}
	return sjson.Set(payload, "sampledAt", sampledAt.UTC().Format(sampledAtLayout))
}

// SuggestionsPrompt wraps the payload in the instruction text, capped at
// the prompt budget.
func SuggestionsPrompt(payload string) string {
	prompt := strings.Join([]string{
		"Given the following subscriptions snapshot and optional user preferences, generate actionable suggestions.",
		"Be specific and concise. Avoid duplication. Tailor to billing cycles, amounts, currency, and activity.",
		"Only include fields permitted by the schema. Use IDs from the snapshot in targetIds.",
		"",
		"Input JSON:",
		"```json",
		payload,
		"```",
	}, "\n")
	return utils.Truncate(prompt, config.MaxPromptChars)
}

// BuildSuggestionsRequest converts a sanitized snapshot into a provider call.
func BuildSuggestionsRequest(model string, subs []domain.SubscriptionSnapshotItem, prefs *domain.Preferences, sampledAt time.Time) (*GenerateRequest, error) {
	if len(subs) == 0 {
		return nil, domain.BadRequest(MsgNoSubscriptions)
	}
	payload, err := SuggestionsPayload(subs, prefs, sampledAt)
	if err != nil {
		return nil, domain.ModelError("failed to build suggestions payload", err)
	}
	return &GenerateRequest{
		Model:             model,
		SystemInstruction: SuggestionsSystemInstruction,
		Turns:             []Turn{{Role: TurnUser, Text: SuggestionsPrompt(payload)}},
		Config:            SuggestionsGeneration,
	}, nil
}
