// Package gateway exposes the assistant operations over HTTP.
//
// DESIGN: The Gateway owns its admission control and observability:
//   - ratelimit.Limiter: constructed here, stopped in Shutdown
//   - monitoring.Tracker: JSONL request/init events
//   - monitoring.MetricsCollector: counters served by /stats
//   - Ledger (optional): durable usage rows
//
// A nil Invoker means the server holds no upstream credential; both
// operations then answer UNAUTHORIZED.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/invoker"
	"github.com/subdash/assistant-gateway/internal/monitoring"
	"github.com/subdash/assistant-gateway/internal/ratelimit"
	"github.com/subdash/assistant-gateway/internal/store"
)

// ModelInvoker runs the two upstream operations.
type ModelInvoker interface {
	Chat(ctx context.Context, msgs []domain.ChatMessage, chatCtx *domain.ChatContext) (*invoker.Reply, error)
	Suggestions(ctx context.Context, subs []domain.SubscriptionSnapshotItem, prefs *domain.Preferences) (*invoker.Reply, error)
}

// Ledger persists per-request usage.
type Ledger interface {
	Record(ctx context.Context, e store.Entry) error
	Summary(ctx context.Context, since time.Time) ([]store.OperationSummary, error)
	Recent(ctx context.Context, n int) ([]store.Entry, error)
}

// Deps are the collaborators of a Gateway. Nil Limiter, Tracker and Metrics
// are built from the config.
type Deps struct {
	Invoker ModelInvoker
	Limiter *ratelimit.Limiter
	Tracker *monitoring.Tracker
	Metrics *monitoring.MetricsCollector
	Ledger  Ledger
}

// Gateway is the HTTP front of the assistant.
type Gateway struct {
	cfg     *config.Config
	invoker ModelInvoker
	limiter *ratelimit.Limiter
	tracker *monitoring.Tracker
	metrics *monitoring.MetricsCollector
	ledger  Ledger
	handler http.Handler
	server  *http.Server
}

// New wires a Gateway. It does not start listening.
func New(cfg *config.Config, deps Deps) (*Gateway, error) {
	if cfg == nil {
		return nil, errors.New("gateway: config is required")
	}

	g := &Gateway{
		cfg:     cfg,
		invoker: deps.Invoker,
		limiter: deps.Limiter,
		tracker: deps.Tracker,
		metrics: deps.Metrics,
		ledger:  deps.Ledger,
	}
	if g.limiter == nil {
		g.limiter = ratelimit.New(ratelimit.FromConfig(cfg.RateLimit))
	}
	if g.tracker == nil {
		tr, err := monitoring.NewTracker(monitoring.TelemetryConfig{
			Enabled: cfg.Monitoring.TelemetryPath != "",
			LogPath: cfg.Monitoring.TelemetryPath,
		})
		if err != nil {
			g.limiter.Stop()
			return nil, fmt.Errorf("gateway: telemetry: %w", err)
		}
		g.tracker = tr
	}
	if g.metrics == nil {
		g.metrics = monitoring.NewMetricsCollector()
	}

	g.handler = g.routes()
	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           g.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g.tracker.RecordInit(buildInitEvent(cfg, g.invoker != nil, g.ledger != nil))
	return g, nil
}

// Handler returns the routed handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler { return g.handler }

// Start blocks serving HTTP until Shutdown.
func (g *Gateway) Start() error {
	log.Info().
		Int("port", g.cfg.Server.Port).
		Str("transport", g.cfg.Provider.Transport).
		Str("chat_model", g.cfg.Provider.ChatModel).
		Str("suggest_model", g.cfg.Provider.SuggestModel).
		Bool("credential", g.invoker != nil).
		Msg("gateway: listening")

	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops the limiter and tracker.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.server.Shutdown(ctx)
	g.limiter.Stop()
	_ = g.tracker.Close()
	if err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	log.Info().Msg("gateway: stopped")
	return nil
}
