// Package gateway - stats.go exposes aggregated metrics as JSON.
//
// GET /stats returns operational counters and limiter occupancy. When a
// ledger is configured it adds the 24h per-operation summary and the most
// recent ledger rows.
package gateway

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/monitoring"
	"github.com/subdash/assistant-gateway/internal/store"
)

const (
	ledgerSummaryWindow = 24 * time.Hour
	ledgerRecentRows    = 20
)

// StatsResponse is the JSON response for GET /stats.
type StatsResponse struct {
	Metrics   monitoring.StatsResponse `json:"metrics"`
	RateLimit struct {
		Buckets int `json:"buckets"`
	} `json:"rate_limit"`
	Ledger []store.OperationSummary `json:"ledger,omitempty"`
	Recent []store.Entry            `json:"recent,omitempty"`
}

// handleStats returns aggregated metrics as JSON.
// Restricted to localhost to prevent external access to operational metrics.
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var resp StatsResponse
	resp.Metrics = g.metrics.FullStats()
	resp.RateLimit.Buckets = g.limiter.Buckets()

	if g.ledger != nil {
		summary, err := g.ledger.Summary(r.Context(), time.Now().Add(-ledgerSummaryWindow))
		if err != nil {
			log.Warn().Err(err).Msg("stats: ledger summary failed")
		} else {
			resp.Ledger = summary
		}
		recent, err := g.ledger.Recent(r.Context(), ledgerRecentRows)
		if err != nil {
			log.Warn().Err(err).Msg("stats: ledger recent rows failed")
		} else {
			resp.Recent = recent
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	_ = json.NewEncoder(w).Encode(resp)
}

// isLoopback reports whether remoteAddr is a loopback address.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
