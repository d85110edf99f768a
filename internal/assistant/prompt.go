package assistant

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/fallback"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// Snapshot bounds for the chat system instruction.
const (
	SnapshotMaxEntries = 50
	SnapshotMaxName    = 60
)

// Wire defaults for fields the subscription store does not keep.
const (
	DefaultCategory     = "misc"
	DefaultBillingCycle = "monthly"
)

// BaseSystemPrompt is the persona of the dashboard assistant.
var BaseSystemPrompt = strings.Join([]string{
	"You are the Subscriptions Dashboard AI assistant for a personal finance app.",
	"Purpose: help the user understand, manage, and optimize their subscriptions within this dashboard.",
	"Behavior:",
	"- Be concise and actionable. When appropriate, use Markdown formatting (bold, lists, tables, code blocks).",
	"- Never claim access to bank accounts, emails, or external services. You only see what the user shares.",
	"- When asked about subscriptions, use the 'Subscriptions snapshot' provided in the system context to answer directly. If the snapshot is absent, gracefully state that no subscription data is available.",
	"- Prefer short checklists and clear next steps. Avoid hallucinating subscription entries.",
	"Formatting:",
	"- Use **bold** for key figures, bullet lists for steps, and backticks for short inline terms.",
}, "\n")

const markdownReminder = "Always format responses using Markdown (GFM). Use bold for key numbers and bullet lists for steps."

// UserContext describes the person using the assistant.
type UserContext struct {
	Locale          string
	Timezone        string
	DefaultCurrency string
}

// ChatContext converts u into the wire hints, nil when empty.
func (u UserContext) ChatContext() *domain.ChatContext {
	c := &domain.ChatContext{Timezone: u.Timezone, Currency: u.DefaultCurrency, Locale: u.Locale}
	if c.Empty() {
		return nil
	}
	return c
}

// Preferences converts u into suggestion preferences, nil when empty.
func (u UserContext) Preferences() *domain.Preferences {
	p := &domain.Preferences{DefaultCurrency: u.DefaultCurrency, Locale: u.Locale, Timezone: u.Timezone}
	if p.Empty() {
		return nil
	}
	return p
}

// SnapshotEntry is one row of the system-instruction snapshot.
type SnapshotEntry struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// BuildSnapshot keeps the first 50 subscriptions. A remainder that shares a
// single currency is folded into one "Other (n)" row; a mixed remainder is
// dropped.
func BuildSnapshot(subs []fallback.Subscription) []SnapshotEntry {
	if len(subs) == 0 {
		return []SnapshotEntry{}
	}

	n := min(len(subs), SnapshotMaxEntries)
	out := make([]SnapshotEntry, 0, n+1)
	for _, s := range subs[:n] {
		out = append(out, SnapshotEntry{
			Name:     utils.Truncate(s.Name, SnapshotMaxName),
			Amount:   round2(s.Price),
			Currency: s.Currency,
		})
	}
	if len(subs) <= SnapshotMaxEntries {
		return out
	}

	rest := subs[SnapshotMaxEntries:]
	currency := rest[0].Currency
	var sum float64
	for _, s := range rest {
		if s.Currency != currency {
			return out
		}
		if !math.IsNaN(s.Price) && !math.IsInf(s.Price, 0) {
			sum += s.Price
		}
	}
	return append(out, SnapshotEntry{
		Name:     fmt.Sprintf("Other (%d)", len(rest)),
		Amount:   round2(sum),
		Currency: currency,
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// SystemInstruction composes the chat system message.
func SystemInstruction(subs []fallback.Subscription, u UserContext) string {
	parts := []string{
		BaseSystemPrompt,
		"",
		fmt.Sprintf("User context: locale=%s, timezone=%s, defaultCurrency=%s.",
			orDefault(u.Locale, "en-US"), orDefault(u.Timezone, "unknown"), orDefault(u.DefaultCurrency, "USD")),
		fmt.Sprintf("Subscriptions known in client state: ~%d.", len(subs)),
	}

	snapshot := BuildSnapshot(subs)
	if len(snapshot) > 0 {
		if data, err := utils.MarshalNoEscape(snapshot); err == nil {
			parts = append(parts,
				fmt.Sprintf("Subscriptions snapshot (first %d):", len(snapshot)),
				"```json", string(data), "```")
		}
	}
	parts = append(parts, markdownReminder)
	return strings.Join(parts, "\n")
}

// PromptFromSuggestion turns a suggestion card into a chat prompt naming the
// subscriptions it targets.
func PromptFromSuggestion(s domain.Suggestion, subs []fallback.Subscription) string {
	ids := make(map[string]struct{}, len(s.TargetIDs))
	for _, id := range s.TargetIDs {
		ids[id] = struct{}{}
	}
	var names []string
	for _, sub := range subs {
		if _, ok := ids[sub.ID]; ok {
			names = append(names, sub.Name)
		}
	}

	prompt := fmt.Sprintf("Analyze: %s. %s", s.Title, s.Description)
	if len(names) > 0 {
		prompt += " Targeted: " + strings.Join(names, ", ")
	}
	return prompt
}

// WirePayload maps stored subscriptions onto the suggestions request,
// filling the fields the store does not keep.
func WirePayload(subs []fallback.Subscription, now time.Time) []domain.SubscriptionSnapshotItem {
	n := min(len(subs), config.MaxSubscriptions)
	today := now.UTC().Format(time.DateOnly)
	out := make([]domain.SubscriptionSnapshotItem, 0, n)
	for _, s := range subs[:n] {
		out = append(out, domain.SubscriptionSnapshotItem{
			ID:              s.ID,
			Name:            s.Name,
			Amount:          s.Price,
			Currency:        s.Currency,
			BillingCycle:    DefaultBillingCycle,
			NextPaymentDate: today,
			Category:        DefaultCategory,
			IsActive:        true,
		})
	}
	return out
}
