package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subdash/assistant-gateway/internal/assistant"
	"github.com/subdash/assistant-gateway/internal/domain"
)

func newPlain() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut), &out, &errOut
}

func TestPrinterPlainWhenNotTerminal(t *testing.T) {
	p, out, _ := newPlain()
	assert.False(t, p.styled)
	assert.Equal(t, "**bold**", p.Markdown("**bold**"))

	p.Reply(domain.ChatMessage{Role: domain.RoleAssistant, Content: "- item"})
	assert.Equal(t, "- item\n", out.String())
}

func TestPrinterNotify(t *testing.T) {
	p, out, errOut := newPlain()
	var _ assistant.Notifier = p

	p.Notify("Chat error", "Upstream timeout")
	assert.Empty(t, out.String())
	assert.Equal(t, "Chat error: Upstream timeout\n", errOut.String())
}

func TestPrinterCards(t *testing.T) {
	p, out, _ := newPlain()
	monthly, yearly := 12.5, 150.0

	p.Cards([]domain.Suggestion{
		{
			Type: "cancel", Title: "Drop Gym", Description: "Unused for months.",
			Confidence:     domain.ConfidenceHigh,
			ImpactEstimate: &domain.ImpactEstimate{Currency: "EUR", Monthly: &monthly, Yearly: &yearly},
			Actions:        []domain.SuggestionAction{{Type: "cancel", Label: "Cancel membership"}},
		},
		{Type: "reminder", Title: "Track renewals", Description: "Check dates."},
	})

	assert.Equal(t,
		"1. Drop Gym [cancel] high\n"+
			"   Unused for months.\n"+
			"   Saves ~12.50 EUR/mo, 150.00 EUR/yr\n"+
			"   -> Cancel membership\n"+
			"2. Track renewals [reminder]\n"+
			"   Check dates.\n",
		out.String())
}

func TestPrinterObserve(t *testing.T) {
	p, out, errOut := newPlain()
	cards := []domain.Suggestion{{Type: "optimize", Title: "Review Gym", Description: "Costs 40.00 USD/mo."}}

	p.Observe(assistant.SuggestionView{State: assistant.StateOptimistic, Suggestions: cards})
	p.Observe(assistant.SuggestionView{State: assistant.StateLoading, Suggestions: cards})
	p.Observe(assistant.SuggestionView{State: assistant.StateError, Suggestions: cards})
	p.Observe(assistant.SuggestionView{State: assistant.StateIdle, Suggestions: cards})

	assert.Equal(t, "1. Review Gym [optimize]\n   Costs 40.00 USD/mo.\n", out.String())
	assert.Equal(t,
		"[INFO] Quick ideas while the assistant thinks:\n"+
			"[INFO] Asking the assistant for suggestions...\n"+
			"[WARN] Suggestions unavailable; keeping the quick ideas.\n",
		errOut.String())
}

func TestPrinterObserveSuccessWithSummary(t *testing.T) {
	p, out, errOut := newPlain()
	p.Observe(assistant.SuggestionView{
		State:       assistant.StateSuccess,
		Summary:     "Two quick wins.",
		Suggestions: []domain.Suggestion{{Type: "cancel", Title: "A", Description: "B"}},
	})
	assert.Equal(t, "Two quick wins.\n1. A [cancel]\n   B\n", out.String())
	assert.Equal(t, "[OK] 1 suggestions from the assistant\n", errOut.String())
}
