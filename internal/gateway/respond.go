// Package gateway - respond.go writes responses and records each request.
//
// Every response, success or failure, goes through writeJSON so the JSON
// headers, telemetry, metrics and ledger row are never skipped.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/monitoring"
	"github.com/subdash/assistant-gateway/internal/ratelimit"
	"github.com/subdash/assistant-gateway/internal/store"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// HeaderRequestID echoes the request ID to clients.
const HeaderRequestID = "X-Request-ID"

const ledgerWriteTimeout = 2 * time.Second

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// requestID returns chi's request ID, or a fresh UUID outside the router.
func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

// operationOf maps a request path to its telemetry operation.
func operationOf(path string) monitoring.Operation {
	switch strings.TrimSuffix(path, "/") {
	case "/gateway/chat":
		return monitoring.OpChat
	case "/gateway/suggestions":
		return monitoring.OpSuggestions
	default:
		return monitoring.OpUnknown
	}
}

func (g *Gateway) newEvent(r *http.Request) *monitoring.RequestEvent {
	return &monitoring.RequestEvent{
		RequestID: requestID(r),
		Timestamp: time.Now(),
		Operation: operationOf(r.URL.Path),
		ClientID:  ratelimit.ClientID(r),
	}
}

// readBody reads at most the configured body size.
func (g *Gateway) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, g.cfg.Server.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.BadRequest(MsgBodyTooLarge)
		}
		return nil, domain.BadRequest("failed to read request")
	}
	return body, nil
}

// fail writes the error envelope for err.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, ev *monitoring.RequestEvent, err error) {
	de := domain.AsError(err)
	ev.ErrorCode = string(de.Code)
	ev.Error = de.Message
	if de.Err != nil {
		log.Debug().Err(de.Err).Str("request_id", ev.RequestID).Str("code", string(de.Code)).Msg("gateway: request failed")
	}
	g.writeJSON(w, r, ev, de.Code.HTTPStatus(), errorEnvelope{Error: errorBody{Code: de.Code, Message: de.Message}})
}

// writeJSON writes v with the no-store JSON headers and records the request.
func (g *Gateway) writeJSON(w http.ResponseWriter, r *http.Request, ev *monitoring.RequestEvent, status int, v any) {
	data, err := utils.MarshalNoEscape(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":{"code":"MODEL_ERROR","message":"failed to encode response"}}`)
		ev.ErrorCode = string(domain.CodeModelError)
		ev.Error = err.Error()
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store, max-age=0")
	h.Set(HeaderRequestID, ev.RequestID)
	w.WriteHeader(status)
	_, _ = w.Write(data)

	ev.StatusCode = status
	ev.ResponseBodySize = len(data)
	ev.Success = status < http.StatusBadRequest
	g.record(r.Context(), ev)
}

// record fans one finished request out to logs, telemetry, metrics and ledger.
func (g *Gateway) record(ctx context.Context, ev *monitoring.RequestEvent) {
	ev.TotalLatencyMs = time.Since(ev.Timestamp).Milliseconds()

	var e *zerolog.Event
	if ev.Success {
		e = log.Info()
	} else {
		e = log.Warn()
	}
	e.Str("request_id", ev.RequestID).
		Str("operation", string(ev.Operation)).
		Str("client", ev.ClientID).
		Int("status", ev.StatusCode).
		Str("code", ev.ErrorCode).
		Int64("latency_ms", ev.TotalLatencyMs).
		Int("input_tokens", ev.InputTokens).
		Int("output_tokens", ev.OutputTokens).
		Msg("gateway request")

	g.tracker.RecordRequest(ev)
	g.metrics.Record(ev)

	if g.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()
	if err := g.ledger.Record(ctx, store.Entry{
		RequestID:            ev.RequestID,
		Operation:            string(ev.Operation),
		Model:                ev.Model,
		ClientID:             ev.ClientID,
		StatusCode:           ev.StatusCode,
		ErrorCode:            ev.ErrorCode,
		EstimatedInputTokens: ev.EstimatedInputTokens,
		InputTokens:          ev.InputTokens,
		OutputTokens:         ev.OutputTokens,
		SuggestionCount:      ev.SuggestionCount,
		Latency:              time.Duration(ev.TotalLatencyMs) * time.Millisecond,
		CreatedAt:            ev.Timestamp,
	}); err != nil {
		log.Error().Err(err).Str("request_id", ev.RequestID).Msg("gateway: ledger write failed")
	}
}
