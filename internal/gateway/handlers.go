package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/invoker"
	"github.com/subdash/assistant-gateway/internal/monitoring"
	"github.com/subdash/assistant-gateway/internal/normalize"
	"github.com/subdash/assistant-gateway/internal/sanitize"
)

type assistantMessage struct {
	Role        domain.Role       `json:"role"`
	Content     string            `json:"content"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
}

type chatResponse struct {
	Message assistantMessage  `json:"message"`
	Usage   *domain.UsageMeta `json:"usage,omitempty"`
}

type suggestionsResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Summary     string              `json:"summary,omitempty"`
	Usage       *domain.UsageMeta   `json:"usage,omitempty"`
}

// admit runs the checks shared by both operations: body size, JSON syntax,
// then the server credential. Input validation comes after.
func (g *Gateway) admit(w http.ResponseWriter, r *http.Request, ev *monitoring.RequestEvent) ([]byte, bool) {
	body, err := g.readBody(w, r)
	if err != nil {
		g.fail(w, r, ev, err)
		return nil, false
	}
	ev.RequestBodySize = len(body)

	if !gjson.ValidBytes(body) {
		g.fail(w, r, ev, domain.BadRequest(sanitize.MsgInvalidJSON))
		return nil, false
	}
	if g.invoker == nil {
		g.fail(w, r, ev, domain.Unauthorized(MsgMissingCredential))
		return nil, false
	}
	return body, true
}

// noteReply copies upstream accounting into the event and returns usage.
func noteReply(ev *monitoring.RequestEvent, reply *invoker.Reply) *domain.UsageMeta {
	ev.Model = reply.Model
	ev.EstimatedInputTokens = reply.EstimatedInputTokens
	usage := normalize.Usage(reply.Usage)
	ev.InputTokens = usage.In()
	ev.OutputTokens = usage.Out()
	return usage
}

// handleChat serves POST /gateway/chat.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	ev := g.newEvent(r)
	body, ok := g.admit(w, r, ev)
	if !ok {
		return
	}

	in, err := sanitize.ChatRequest(body)
	if err != nil {
		g.fail(w, r, ev, err)
		return
	}
	ev.MessageCount = len(in.Messages)

	modelStart := time.Now()
	reply, err := g.invoker.Chat(r.Context(), in.Messages, in.Context)
	ev.ModelLatencyMs = time.Since(modelStart).Milliseconds()
	if err != nil {
		g.fail(w, r, ev, err)
		return
	}
	usage := noteReply(ev, reply)

	g.writeJSON(w, r, ev, http.StatusOK, chatResponse{
		Message: assistantMessage{
			Role:        domain.RoleAssistant,
			Content:     reply.Text,
			Annotations: reply.Annotations,
		},
		Usage: usage,
	})
}

// handleSuggestions serves POST /gateway/suggestions.
func (g *Gateway) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	ev := g.newEvent(r)
	body, ok := g.admit(w, r, ev)
	if !ok {
		return
	}

	in, err := sanitize.SuggestionsRequest(body)
	if err != nil {
		g.fail(w, r, ev, err)
		return
	}
	ev.SubscriptionCount = len(in.Subscriptions)

	modelStart := time.Now()
	reply, err := g.invoker.Suggestions(r.Context(), in.Subscriptions, in.Preferences)
	ev.ModelLatencyMs = time.Since(modelStart).Milliseconds()
	if err != nil {
		g.fail(w, r, ev, err)
		return
	}
	usage := noteReply(ev, reply)

	payload, err := normalize.Suggestions(reply.Text)
	if err != nil {
		g.fail(w, r, ev, err)
		return
	}
	ev.ExtractionStrategy = payload.Strategy
	ev.SuggestionCount = len(payload.Suggestions)

	g.writeJSON(w, r, ev, http.StatusOK, suggestionsResponse{
		Suggestions: payload.Suggestions,
		Summary:     payload.Summary,
		Usage:       usage,
	})
}

// handleHealth returns gateway health status.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"time":       time.Now().Format(time.RFC3339),
		"credential": g.invoker != nil,
	})
}
