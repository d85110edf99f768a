// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by both gateway/ and monitoring/ packages.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - Operation:     Identifies which gateway operation handled a request
//   - RequestEvent:  Telemetry data for each request
//   - InitEvent:     Startup configuration snapshot
//   - Config types:  TelemetryConfig
package monitoring

import "time"

// =============================================================================
// OPERATIONS - Used by gateway routing and telemetry
// =============================================================================

// Operation identifies the gateway operation of a request.
type Operation string

const (
	OpChat        Operation = "chat"
	OpSuggestions Operation = "suggestions"
	OpUnknown     Operation = "unknown"
)

// =============================================================================
// EVENT TYPES - Structured data for telemetry recording
// =============================================================================

// RequestEvent captures one request through the gateway.
type RequestEvent struct {
	RequestID            string    `json:"request_id"`
	Timestamp            time.Time `json:"timestamp"`
	Operation            Operation `json:"operation"`
	ClientID             string    `json:"client_id"`
	Model                string    `json:"model,omitempty"`
	RequestBodySize      int       `json:"request_body_size"`
	ResponseBodySize     int       `json:"response_body_size"`
	StatusCode           int       `json:"status_code"`
	ErrorCode            string    `json:"error_code,omitempty"`
	Error                string    `json:"error,omitempty"`
	Success              bool      `json:"success"`
	MessageCount         int       `json:"message_count,omitempty"`
	SubscriptionCount    int       `json:"subscription_count,omitempty"`
	SuggestionCount      int       `json:"suggestion_count,omitempty"`
	ExtractionStrategy   string    `json:"extraction_strategy,omitempty"` // direct, fenced
	EstimatedInputTokens int       `json:"estimated_input_tokens,omitempty"`
	InputTokens          int       `json:"input_tokens,omitempty"`
	OutputTokens         int       `json:"output_tokens,omitempty"`
	ModelLatencyMs       int64     `json:"model_latency_ms"`
	TotalLatencyMs       int64     `json:"total_latency_ms"`
}

// InitEvent captures gateway startup configuration.
type InitEvent struct {
	Timestamp            time.Time `json:"timestamp"`
	Event                string    `json:"event"`
	ServerPort           int       `json:"server_port"`
	ServerReadTimeoutMs  int64     `json:"server_read_timeout_ms"`
	ServerWriteTimeoutMs int64     `json:"server_write_timeout_ms"`
	Transport            string    `json:"transport"`
	ChatModel            string    `json:"chat_model"`
	SuggestModel         string    `json:"suggest_model"`
	ModelTimeoutMs       int64     `json:"model_timeout_ms"`
	HasAPIKey            bool      `json:"has_api_key"`
	ProviderReady        bool      `json:"provider_ready"`
	APIKeyFromParameter  bool      `json:"api_key_from_parameter,omitempty"`
	RateLimit            int       `json:"rate_limit"`
	RateWindowMs         int64     `json:"rate_window_ms"`
	LedgerEnabled        bool      `json:"ledger_enabled"`
	TelemetryPath        string    `json:"telemetry_path,omitempty"`
}

// =============================================================================
// CONFIG TYPES
// =============================================================================

// TelemetryConfig contains telemetry configuration.
type TelemetryConfig struct {
	Enabled     bool
	LogPath     string
	LogToStdout bool
}
