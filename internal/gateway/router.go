package gateway

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/ratelimit"
)

// Client-facing messages produced by the router itself.
const (
	MsgOnlyPOST          = "Only POST is allowed"
	MsgUnknownAction     = "Unknown action"
	MsgTooManyRequests   = "Too many requests"
	MsgMissingCredential = "Server configuration missing: GEMINI_API_KEY"
	MsgBodyTooLarge      = "Request body too large"
)

// routes builds the router. Gateway requests pass, in order: method check,
// rate limit, action dispatch.
func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", g.handleHealth)
	r.Get("/stats", g.handleStats)

	r.Route("/gateway", func(gw chi.Router) {
		gw.Use(g.requirePOST)
		gw.Use(g.limiter.Middleware(g.onRateLimited))

		gw.HandleFunc("/chat", g.handleChat)
		gw.HandleFunc("/suggestions", g.handleSuggestions)
		gw.HandleFunc("/*", g.handleUnknownAction)
	})
	return r
}

func (g *Gateway) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			g.fail(w, r, g.newEvent(r), domain.BadRequest(MsgOnlyPOST))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) onRateLimited(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	g.fail(w, r, g.newEvent(r), domain.RateLimited(MsgTooManyRequests))
}

func (g *Gateway) handleUnknownAction(w http.ResponseWriter, r *http.Request) {
	g.fail(w, r, g.newEvent(r), domain.BadRequest(MsgUnknownAction))
}
