// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes: Total and successful request counts per operation
//   - errors:             Failures keyed by error code
//   - fallbacks:          Suggestion responses with no usable model output
//   - tokens:             Estimated input plus reported input/output tokens
//
// Served as JSON by the loopback-only /stats endpoint.
package monitoring

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	startedAt time.Time

	// Request counters
	requests        atomic.Int64
	successes       atomic.Int64
	chatRequests    atomic.Int64
	suggestRequests atomic.Int64
	rateLimited     atomic.Int64
	emptySuggest    atomic.Int64

	// Token counters
	estimatedInputTokens atomic.Int64
	totalInputTokens     atomic.Int64 // From usage metadata
	totalOutputTokens    atomic.Int64 // From usage metadata
	// Estimated spend stored as cost * 1e9 (nano-dollars) for atomic adds
	costNano atomic.Int64

	// Latency
	totalModelLatencyMs atomic.Int64
	modelCalls          atomic.Int64

	errMu      sync.Mutex
	errorCodes map[string]int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startedAt:  time.Now(),
		errorCodes: make(map[string]int64),
	}
}

// Record folds a finished request event into the counters.
func (mc *MetricsCollector) Record(event *RequestEvent) {
	if mc == nil || event == nil {
		return
	}
	mc.requests.Add(1)
	switch event.Operation {
	case OpChat:
		mc.chatRequests.Add(1)
	case OpSuggestions:
		mc.suggestRequests.Add(1)
	}

	if event.Success {
		mc.successes.Add(1)
		if event.Operation == OpSuggestions && event.SuggestionCount == 0 {
			mc.emptySuggest.Add(1)
		}
	} else if event.ErrorCode != "" {
		mc.errMu.Lock()
		mc.errorCodes[event.ErrorCode]++
		mc.errMu.Unlock()
		if event.ErrorCode == "RATE_LIMITED" {
			mc.rateLimited.Add(1)
		}
	}

	mc.estimatedInputTokens.Add(int64(event.EstimatedInputTokens))
	mc.totalInputTokens.Add(int64(event.InputTokens))
	mc.totalOutputTokens.Add(int64(event.OutputTokens))
	if event.InputTokens > 0 || event.OutputTokens > 0 {
		cost := CalculateCost(event.InputTokens, event.OutputTokens, GetModelPricing(event.Model))
		mc.costNano.Add(int64(cost * 1e9))
	}
	if event.ModelLatencyMs > 0 {
		mc.modelCalls.Add(1)
		mc.totalModelLatencyMs.Add(event.ModelLatencyMs)
	}
}

// StartedAt returns when the metrics collector was created.
func (mc *MetricsCollector) StartedAt() time.Time { return mc.startedAt }

// FullStats returns all metrics in a structured format for the stats endpoint.
func (mc *MetricsCollector) FullStats() StatsResponse {
	uptime := time.Since(mc.startedAt)
	requests := mc.requests.Load()
	successes := mc.successes.Load()

	var avgLatency float64
	if calls := mc.modelCalls.Load(); calls > 0 {
		avgLatency = float64(mc.totalModelLatencyMs.Load()) / float64(calls)
	}

	mc.errMu.Lock()
	codes := make(map[string]int64, len(mc.errorCodes))
	for k, v := range mc.errorCodes {
		codes[k] = v
	}
	mc.errMu.Unlock()

	return StatsResponse{
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartedAt:     mc.startedAt.Format(time.RFC3339),
		Requests: RequestStats{
			Total:       requests,
			Successful:  successes,
			Failed:      requests - successes,
			Chat:        mc.chatRequests.Load(),
			Suggestions: mc.suggestRequests.Load(),
			RateLimited: mc.rateLimited.Load(),
			EmptyResult: mc.emptySuggest.Load(),
		},
		Tokens: TokenStatsData{
			EstimatedInputTokens: mc.estimatedInputTokens.Load(),
			InputTokens:          mc.totalInputTokens.Load(),
			OutputTokens:         mc.totalOutputTokens.Load(),
			EstimatedCostUSD:     float64(mc.costNano.Load()) / 1e9,
		},
		Model: ModelStats{
			Calls:          mc.modelCalls.Load(),
			AvgLatencyMs:   avgLatency,
			TotalLatencyMs: mc.totalModelLatencyMs.Load(),
		},
		ErrorCodes: codes,
	}
}

// StatsResponse is the structured response for the stats endpoint.
type StatsResponse struct {
	Uptime        string           `json:"uptime"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartedAt     string           `json:"started_at"`
	Requests      RequestStats     `json:"requests"`
	Tokens        TokenStatsData   `json:"tokens"`
	Model         ModelStats       `json:"model"`
	ErrorCodes    map[string]int64 `json:"error_codes"`
}

// RequestStats holds request count metrics.
type RequestStats struct {
	Total       int64 `json:"total"`
	Successful  int64 `json:"successful"`
	Failed      int64 `json:"failed"`
	Chat        int64 `json:"chat"`
	Suggestions int64 `json:"suggestions"`
	RateLimited int64 `json:"rate_limited"`
	EmptyResult int64 `json:"empty_suggestions"`
}

// TokenStatsData holds token metrics.
type TokenStatsData struct {
	EstimatedInputTokens int64   `json:"estimated_input_tokens"`
	InputTokens          int64   `json:"input_tokens"`
	OutputTokens         int64   `json:"output_tokens"`
	EstimatedCostUSD     float64 `json:"estimated_cost_usd"`
}

// ModelStats holds upstream call metrics.
type ModelStats struct {
	Calls          int64   `json:"calls"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	TotalLatencyMs int64   `json:"total_latency_ms"`
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
