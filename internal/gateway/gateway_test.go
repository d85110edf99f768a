package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/invoker"
	"github.com/subdash/assistant-gateway/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// =============================================================================
// FIXTURES
// =============================================================================

type stubProvider struct {
	fn func(ctx context.Context, req *invoker.GenerateRequest) (*invoker.GenerateResponse, error)
}

func (s *stubProvider) Generate(ctx context.Context, req *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
	return s.fn(ctx, req)
}

func replyWith(text string) *stubProvider {
	return &stubProvider{fn: func(context.Context, *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		return &invoker.GenerateResponse{
			Text:  text,
			Usage: json.RawMessage(`{"promptTokenCount":42,"candidatesTokenCount":7}`),
		}, nil
	}}
}

type memLedger struct {
	mu      sync.Mutex
	entries []store.Entry
}

func (l *memLedger) Record(_ context.Context, e store.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func (l *memLedger) Summary(context.Context, time.Time) ([]store.OperationSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return []store.OperationSummary{{Operation: "chat", Requests: int64(len(l.entries))}}, nil
}

func (l *memLedger) Recent(_ context.Context, n int) ([]store.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]store.Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Monitoring.TelemetryPath = ""
	return cfg
}

func newTestGateway(t *testing.T, cfg *config.Config, p invoker.Provider, ledger Ledger) *Gateway {
	t.Helper()
	deps := Deps{Ledger: ledger}
	if p != nil {
		deps.Invoker = invoker.New(p, invoker.Options{Timeout: cfg.Provider.Timeout})
	}
	g, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Shutdown(context.Background()) })
	return g
}

func do(g *Gateway, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	g.Handler().ServeHTTP(w, req)
	return w
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code, msg string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	assert.Equal(t, code, gjson.Get(w.Body.String(), "error.code").String())
	if msg != "" {
		assert.Equal(t, msg, gjson.Get(w.Body.String(), "error.message").String())
	}
	assertJSONHeaders(t, w)
}

func assertJSONHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store, max-age=0", w.Header().Get("Cache-Control"))
}

const chatBody = `{"messages":[{"role":"system","content":"Be brief."},{"role":"user","content":"  Which subscription costs most?  "}],"context":{"currency":"EUR"}}`

const suggestionsBody = `{"subscriptions":[{"id":"1","name":"Netflix","amount":15.99,"currency":"USD","billingCycle":"monthly","nextPaymentDate":"2026-11-01","category":"video","isActive":true}],"preferences":{"defaultCurrency":"USD"}}`

// =============================================================================
// CHAT
// =============================================================================

func TestChat_Success(t *testing.T) {
	var got *invoker.GenerateRequest
	p := &stubProvider{fn: func(_ context.Context, req *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		got = req
		return &invoker.GenerateResponse{
			Text:        "Netflix, at **15.99 USD** <monthly>.",
			Annotations: []json.RawMessage{json.RawMessage(`{"citations":[]}`)},
			Usage:       json.RawMessage(`{"promptTokenCount":42,"candidatesTokenCount":7}`),
		}, nil
	}}
	ledger := &memLedger{}
	g := newTestGateway(t, testConfig(t), p, ledger)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertJSONHeaders(t, w)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	body := w.Body.String()
	assert.Equal(t, "assistant", gjson.Get(body, "message.role").String())
	assert.Equal(t, "Netflix, at **15.99 USD** <monthly>.", gjson.Get(body, "message.content").String())
	assert.Contains(t, body, "<monthly>")
	assert.Equal(t, int64(1), gjson.Get(body, "message.annotations.#").Int())
	assert.Equal(t, int64(42), gjson.Get(body, "usage.inputTokens").Int())
	assert.Equal(t, int64(7), gjson.Get(body, "usage.outputTokens").Int())

	require.NotNil(t, got)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "Which subscription costs most?", got.Turns[0].Text)
	assert.Equal(t, "Be brief.\nCurrency: EUR", got.SystemInstruction)

	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "chat", ledger.entries[0].Operation)
	assert.Equal(t, http.StatusOK, ledger.entries[0].StatusCode)
	assert.Equal(t, 42, ledger.entries[0].InputTokens)
}

func TestChat_OmitsEmptyOptionalFields(t *testing.T) {
	p := &stubProvider{fn: func(context.Context, *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		return &invoker.GenerateResponse{Text: "ok"}, nil
	}}
	g := newTestGateway(t, testConfig(t), p, nil)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":{"role":"assistant","content":"ok"}}`, w.Body.String())
}

func TestChat_BadRequests(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("unused"), nil)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty messages", `{"messages":[]}`, "messages must be a non-empty array of valid items (max 50)"},
		{"missing messages", `{}`, "messages must be a non-empty array of valid items (max 50)"},
		{"blank content", `{"messages":[{"role":"user","content":"   "}]}`, "messages must be a non-empty array of valid items (max 50)"},
		{"only system", `{"messages":[{"role":"system","content":"x"}]}`, invoker.MsgNoMessages},
		{"invalid json", `{"messages":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(g, http.MethodPost, "/gateway/chat", tt.body)
			assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", tt.msg)
		})
	}
}

func TestChat_MissingCredential(t *testing.T) {
	g := newTestGateway(t, testConfig(t), nil, nil)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	assertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED", MsgMissingCredential)

	// Malformed JSON is reported before the credential.
	w = do(g, http.MethodPost, "/gateway/chat", `not json`)
	assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
}

func TestChat_Timeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider.Timeout = 20 * time.Millisecond
	p := &stubProvider{fn: func(ctx context.Context, _ *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g := newTestGateway(t, cfg, p, nil)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	assertError(t, w, http.StatusGatewayTimeout, "TIMEOUT", "The chat operation timed out")
}

func TestChat_ModelError(t *testing.T) {
	p := &stubProvider{fn: func(context.Context, *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		return nil, &invoker.ProviderError{Message: "API key not valid"}
	}}
	g := newTestGateway(t, testConfig(t), p, nil)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	assertError(t, w, http.StatusInternalServerError, "MODEL_ERROR", "API key not valid")
}

func TestChat_BodyTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxBodyBytes = 64
	g := newTestGateway(t, cfg, replyWith("unused"), nil)

	w := do(g, http.MethodPost, "/gateway/chat", chatBody)
	assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", MsgBodyTooLarge)
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func TestSuggestions_FencedOutput(t *testing.T) {
	raw := "Here you go:\n```json\n{\"suggestions\":[{\"type\":\"optimize\",\"title\":\"X\",\"description\":\"Y\",\"targetIds\":[\"1\"]}],\"summary\":\" One idea. \"}\n```"
	g := newTestGateway(t, testConfig(t), replyWith(raw), nil)

	w := do(g, http.MethodPost, "/gateway/suggestions", suggestionsBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertJSONHeaders(t, w)

	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "suggestions.#").Int())
	assert.Equal(t, "optimize", gjson.Get(body, "suggestions.0.type").String())
	assert.Equal(t, `["1"]`, gjson.Get(body, "suggestions.0.targetIds").Raw)
	assert.Equal(t, "One idea.", gjson.Get(body, "summary").String())
	assert.Equal(t, int64(42), gjson.Get(body, "usage.inputTokens").Int())
}

func TestSuggestions_BlankOutputIsEmptyList(t *testing.T) {
	g := newTestGateway(t, testConfig(t), &stubProvider{fn: func(context.Context, *invoker.GenerateRequest) (*invoker.GenerateResponse, error) {
		return &invoker.GenerateResponse{Text: "  "}, nil
	}}, nil)

	w := do(g, http.MethodPost, "/gateway/suggestions", suggestionsBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
}

func TestSuggestions_UnparseableOutput(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("I think you should cancel Netflix."), nil)

	w := do(g, http.MethodPost, "/gateway/suggestions", suggestionsBody)
	assertError(t, w, http.StatusInternalServerError, "MODEL_ERROR", "model did not return valid structured output")
}

func TestSuggestions_InvalidSnapshot(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("unused"), nil)

	w := do(g, http.MethodPost, "/gateway/suggestions", `{"subscriptions":[{"id":"1","name":"Netflix"}]}`)
	assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", "subscriptions must be a non-empty array of valid items (max 200)")
}

// =============================================================================
// ROUTING AND ADMISSION
// =============================================================================

func TestGateway_OnlyPOST(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("unused"), nil)

	for _, path := range []string{"/gateway/chat", "/gateway/suggestions", "/gateway/nope"} {
		w := do(g, http.MethodGet, path, "")
		assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", MsgOnlyPOST)
	}
}

func TestGateway_UnknownAction(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("unused"), nil)

	w := do(g, http.MethodPost, "/gateway/summarize", `{}`)
	assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", MsgUnknownAction)
}

func TestGateway_RateLimited(t *testing.T) {
	g := newTestGateway(t, testConfig(t), replyWith("hi"), nil)

	for i := 0; i < 60; i++ {
		w := do(g, http.MethodPost, "/gateway/chat", chatBody, "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := do(g, http.MethodPost, "/gateway/chat", chatBody, "X-Forwarded-For", "203.0.113.7")
	assertError(t, w, http.StatusTooManyRequests, "RATE_LIMITED", MsgTooManyRequests)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.LessOrEqual(t, retry, 60)

	// Another client is unaffected.
	w = do(g, http.MethodPost, "/gateway/chat", chatBody, "X-Real-IP", "198.51.100.2")
	assert.Equal(t, http.StatusOK, w.Code)

	stats := g.metrics.FullStats()
	assert.EqualValues(t, 1, stats.Requests.RateLimited)
	assert.EqualValues(t, 62, stats.Requests.Total)
}

// =============================================================================
// HEALTH AND STATS
// =============================================================================

func TestHealth(t *testing.T) {
	g := newTestGateway(t, testConfig(t), nil, nil)

	w := do(g, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
	assert.False(t, gjson.Get(w.Body.String(), "credential").Bool())
}

func TestStats_LoopbackOnly(t *testing.T) {
	ledger := &memLedger{}
	g := newTestGateway(t, testConfig(t), replyWith("hi"), ledger)
	do(g, http.MethodPost, "/gateway/chat", chatBody)

	w := do(g, http.MethodGet, "/stats", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Metrics.Requests.Chat)
	assert.Equal(t, 1, resp.RateLimit.Buckets)
	require.Len(t, resp.Ledger, 1)
	assert.EqualValues(t, 1, resp.Ledger[0].Requests)
}

func TestStats_RecentLedgerRows(t *testing.T) {
	ledger := &memLedger{}
	g := newTestGateway(t, testConfig(t), replyWith("hi"), ledger)
	do(g, http.MethodPost, "/gateway/chat", chatBody)
	do(g, http.MethodPost, "/gateway/chat", chatBody)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	recent := gjson.GetBytes(rec.Body.Bytes(), "recent").Array()
	require.Len(t, recent, 2)
	for _, row := range recent {
		assert.Equal(t, "chat", row.Get("operation").String(), row.Raw)
		assert.Equal(t, http.StatusOK, int(row.Get("status_code").Int()), row.Raw)
	}
}

func TestBuildInitEvent_CredentialFromParameter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider.APIKey = ""
	cfg.Provider.APIKeyParameter = "/assistant/gemini-key"

	ev := buildInitEvent(cfg, false, true)
	assert.True(t, ev.HasAPIKey)
	assert.True(t, ev.APIKeyFromParameter)
	assert.False(t, ev.ProviderReady)
	assert.True(t, ev.LedgerEnabled)

	cfg.Provider.APIKeyParameter = ""
	assert.False(t, buildInitEvent(cfg, false, false).HasAPIKey)
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("127.0.0.1:80"))
	assert.True(t, isLoopback("[::1]:80"))
	assert.False(t, isLoopback("192.0.2.1:1234"))
	assert.False(t, isLoopback("garbage"))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, Deps{})
	assert.Error(t, err)
}
