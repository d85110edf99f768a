// Package fallback synthesizes suggestions locally without calling a model.
//
// DESIGN: Synthesize is pure and deterministic. It is shown optimistically
// while the model call is in flight and kept when that call fails or comes
// back empty, so it never fails and always returns exactly limit items.
package fallback

import (
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
)

// Subscription is the minimal view of a stored subscription.
type Subscription struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Currency string  `json:"currency" yaml:"currency"`
}

type generic struct {
	kind, title, description string
}

// generics pad the output, in this order, cycling as needed.
var generics = []generic{
	{"reminder", "Track upcoming renewals", "Review renewal dates and cancel or renegotiate before auto-renewals."},
	{"consolidate", "Consolidate overlapping tools", "Identify subscriptions with similar features and consolidate to a single plan."},
	{"optimize", "Check for student/annual discounts", "Verify if student, annual, or bundle discounts are available to reduce monthly spend."},
}

// Synthesize returns exactly limit suggestions (3 when limit <= 0): one
// review per most expensive subscription, padded with generic advice.
func Synthesize(subs []Subscription, limit int) []domain.Suggestion {
	if limit <= 0 {
		limit = config.DefaultSuggestionLimit
	}

	sorted := make([]Subscription, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return price(sorted[i]) > price(sorted[j])
	})

	out := make([]domain.Suggestion, 0, limit)
	for _, s := range sorted {
		if len(out) == limit {
			break
		}
		out = append(out, domain.Suggestion{
			Type:        "optimize",
			Title:       "Review " + s.Name,
			Description: fmt.Sprintf("Consider optimizing %s which costs %s/mo.", s.Name, FormatAmount(s.Price, s.Currency)),
			TargetIDs:   []string{s.ID},
			Confidence:  domain.ConfidenceMedium,
		})
	}

	for i := 0; len(out) < limit; i++ {
		g := generics[i%len(generics)]
		out = append(out, domain.Suggestion{
			Type:        g.kind,
			Title:       g.title,
			Description: g.description,
			TargetIDs:   []string{},
			Confidence:  domain.ConfidenceLow,
		})
	}
	return out
}

// price treats non-finite amounts as zero so they sort last.
func price(s Subscription) float64 {
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) {
		return 0
	}
	return s.Price
}

// FormatAmount renders an amount with grouping and two decimals,
// e.g. "1,234.50 USD". An empty currency defaults to USD.
func FormatAmount(amount float64, currency string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	if currency == "" {
		currency = "USD"
	}
	return humanize.FormatFloat("#,###.##", amount) + " " + currency
}
