// Package domain - types.go defines the value types exchanged by the gateway.
//
// DESIGN: These types are used by sanitize/, invoker/, normalize/, fallback/,
// gateway/ and assistant/. Defined here ONCE to avoid duplication and
// circular imports. JSON tags match the public wire format.
package domain

// =============================================================================
// CHAT
// =============================================================================

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the three accepted roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatContext carries optional user locale hints.
type ChatContext struct {
	Timezone string `json:"timezone,omitempty"`
	Currency string `json:"currency,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Empty reports whether no hint is set.
func (c *ChatContext) Empty() bool {
	return c == nil || (c.Timezone == "" && c.Currency == "" && c.Locale == "")
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// SubscriptionSnapshotItem is one recurring charge sent for analysis.
type SubscriptionSnapshotItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billingCycle"`
	NextPaymentDate string  `json:"nextPaymentDate"`
	Category        string  `json:"category"`
	IsActive        bool    `json:"isActive"`
}

// Preferences are optional user preferences for suggestions.
type Preferences struct {
	DefaultCurrency string   `json:"defaultCurrency,omitempty"`
	SavingsGoal     *float64 `json:"savingsGoal,omitempty"`
	Locale          string   `json:"locale,omitempty"`
	Timezone        string   `json:"timezone,omitempty"`
}

// Empty reports whether no preference is set.
func (p *Preferences) Empty() bool {
	return p == nil || (p.DefaultCurrency == "" && p.SavingsGoal == nil && p.Locale == "" && p.Timezone == "")
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// Confidence is the model's stated certainty for a suggestion.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence accepts only the three known levels.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(s); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, true
	}
	return "", false
}

// ImpactEstimate is the projected saving of a suggestion.
type ImpactEstimate struct {
	Currency string   `json:"currency,omitempty"`
	Monthly  *float64 `json:"monthly,omitempty"`
	Yearly   *float64 `json:"yearly,omitempty"`
}

// Empty reports whether no field is set.
func (e *ImpactEstimate) Empty() bool {
	return e == nil || (e.Currency == "" && e.Monthly == nil && e.Yearly == nil)
}

// SuggestionAction is a follow-up the user can take.
type SuggestionAction struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	TargetID string `json:"targetId,omitempty"`
}

// Suggestion is one actionable recommendation.
type Suggestion struct {
	Type           string             `json:"type"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	TargetIDs      []string           `json:"targetIds"`
	ImpactEstimate *ImpactEstimate    `json:"impactEstimate,omitempty"`
	Confidence     Confidence         `json:"confidence,omitempty"`
	Actions        []SuggestionAction `json:"actions,omitempty"`
}

// =============================================================================
// USAGE
// =============================================================================

// UsageMeta is the token accounting reported by the provider.
type UsageMeta struct {
	InputTokens  *int `json:"inputTokens,omitempty"`
	OutputTokens *int `json:"outputTokens,omitempty"`
}

// In returns the input token count or zero.
func (u *UsageMeta) In() int {
	if u == nil || u.InputTokens == nil {
		return 0
	}
	return *u.InputTokens
}

// Out returns the output token count or zero.
func (u *UsageMeta) Out() int {
	if u == nil || u.OutputTokens == nil {
		return 0
	}
	return *u.OutputTokens
}
