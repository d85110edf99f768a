package sanitize

import (
	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
)

// Client-facing failure messages.
const (
	MsgInvalidJSON          = "Invalid JSON body"
	MsgInvalidMessages      = "messages must be a non-empty array of valid items (max 50)"
	MsgInvalidSubscriptions = "subscriptions must be a non-empty array of valid items (max 200)"
)

// ChatInput is a sanitized chat request.
type ChatInput struct {
	Messages []domain.ChatMessage
	Context  *domain.ChatContext
}

// SuggestionsInput is a sanitized suggestions request.
type SuggestionsInput struct {
	Subscriptions []domain.SubscriptionSnapshotItem
	Preferences   *domain.Preferences
}

// ChatRequest validates a raw chat request body.
func ChatRequest(body []byte) (*ChatInput, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.BadRequest(MsgInvalidJSON)
	}
	root := gjson.ParseBytes(body)

	msgs, err := Messages(root.Get("messages"))
	if err != nil {
		return nil, err
	}
	return &ChatInput{Messages: msgs, Context: Context(root.Get("context"))}, nil
}

// SuggestionsRequest validates a raw suggestions request body.
func SuggestionsRequest(body []byte) (*SuggestionsInput, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.BadRequest(MsgInvalidJSON)
	}
	root := gjson.ParseBytes(body)

	subs, err := Subscriptions(root.Get("subscriptions"))
	if err != nil {
		return nil, err
	}
	return &SuggestionsInput{Subscriptions: subs, Preferences: Preferences(root.Get("preferences"))}, nil
}

// Messages keeps the last 50 raw entries, then drops entries without a known
// role or with blank content.
func Messages(v gjson.Result) ([]domain.ChatMessage, error) {
	if !v.IsArray() {
		return nil, domain.BadRequest(MsgInvalidMessages)
	}
	msgs, ok := Collect(lastN(v.Array(), config.MaxMessages), message)
	if !ok {
		return nil, domain.BadRequest(MsgInvalidMessages)
	}
	return msgs, nil
}

func message(v gjson.Result) (domain.ChatMessage, bool) {
	if !v.IsObject() {
		return domain.ChatMessage{}, false
	}
	role := v.Get("role")
	if role.Type != gjson.String || !domain.Role(role.Str).Valid() {
		return domain.ChatMessage{}, false
	}
	content, ok := str(v, "content", config.MaxContentLen)
	if !ok {
		return domain.ChatMessage{}, false
	}
	return domain.ChatMessage{Role: domain.Role(role.Str), Content: content}, true
}

// Context keeps the well-formed locale hints; nil when none survive.
func Context(v gjson.Result) *domain.ChatContext {
	if !v.IsObject() {
		return nil
	}
	var c domain.ChatContext
	c.Timezone, _ = str(v, "timezone", config.MaxLocaleLen)
	c.Currency, _ = str(v, "currency", config.MaxCurrencyLen)
	c.Locale, _ = str(v, "locale", config.MaxLocaleLen)
	if c.Empty() {
		return nil
	}
	return &c
}

// Subscriptions keeps the first 200 raw entries, then drops any entry
// missing a field or carrying a wrongly typed one.
func Subscriptions(v gjson.Result) ([]domain.SubscriptionSnapshotItem, error) {
	if !v.IsArray() {
		return nil, domain.BadRequest(MsgInvalidSubscriptions)
	}
	subs, ok := Collect(firstN(v.Array(), config.MaxSubscriptions), subscription)
	if !ok {
		return nil, domain.BadRequest(MsgInvalidSubscriptions)
	}
	return subs, nil
}

func subscription(v gjson.Result) (domain.SubscriptionSnapshotItem, bool) {
	var s domain.SubscriptionSnapshotItem
	if !v.IsObject() {
		return s, false
	}
	var ok [8]bool
	s.ID, ok[0] = str(v, "id", config.MaxNameLen)
	s.Name, ok[1] = str(v, "name", config.MaxNameLen)
	s.Category, ok[2] = str(v, "category", config.MaxNameLen)
	s.Amount, ok[3] = num(v, "amount")
	s.Currency, ok[4] = str(v, "currency", config.MaxCurrencyLen)
	s.BillingCycle, ok[5] = str(v, "billingCycle", config.MaxBillingCycleLen)
	s.NextPaymentDate, ok[6] = str(v, "nextPaymentDate", config.MaxDateLen)
	s.IsActive, ok[7] = boolean(v, "isActive")
	for _, good := range ok {
		if !good {
			return domain.SubscriptionSnapshotItem{}, false
		}
	}
	return s, true
}

// Preferences keeps the well-formed preference fields; nil when none survive.
func Preferences(v gjson.Result) *domain.Preferences {
	if !v.IsObject() {
		return nil
	}
	var p domain.Preferences
	p.DefaultCurrency, _ = str(v, "defaultCurrency", config.MaxCurrencyLen)
	p.Locale, _ = str(v, "locale", config.MaxLocaleLen)
	p.Timezone, _ = str(v, "timezone", config.MaxLocaleLen)
	if goal, ok := num(v, "savingsGoal"); ok {
		p.SavingsGoal = &goal
	}
	if p.Empty() {
		return nil
	}
	return &p
}
