// Package store keeps a durable usage ledger of gateway operations.
//
// DESIGN: One row per finished request (success or failure). The ledger is
// append-only; Summary aggregates by operation for a time window. Timestamps
// are stored as unix milliseconds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// Entry is one ledger row.
type Entry struct {
	ID                   string        `json:"id"`
	RequestID            string        `json:"request_id"`
	Operation            string        `json:"operation"`
	Model                string        `json:"model,omitempty"`
	ClientID             string        `json:"client_id"`
	StatusCode           int           `json:"status_code"`
	ErrorCode            string        `json:"error_code,omitempty"`
	EstimatedInputTokens int           `json:"estimated_input_tokens"`
	InputTokens          int           `json:"input_tokens"`
	OutputTokens         int           `json:"output_tokens"`
	SuggestionCount      int           `json:"suggestion_count"`
	Latency              time.Duration `json:"latency_ns"`
	CreatedAt            time.Time     `json:"created_at"`
}

// OperationSummary aggregates ledger rows for one operation.
type OperationSummary struct {
	Operation    string `json:"operation"`
	Requests     int64  `json:"requests"`
	Failures     int64  `json:"failures"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store: ledger closed")

// Ledger is the SQLite-backed usage ledger.
type Ledger struct {
	db *sql.DB
}

// Open creates the database directory, applies migrations and opens the ledger.
func Open(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", dbPath).Msg("store: usage ledger ready")
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Record appends e. Missing ID and CreatedAt are filled in.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if l == nil || l.db == nil {
		return ErrClosed
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage_ledger (
			id, request_id, operation, model, client_id, status_code, error_code,
			estimated_input_tokens, input_tokens, output_tokens, suggestion_count,
			latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.Operation, e.Model, e.ClientID, e.StatusCode, e.ErrorCode,
		e.EstimatedInputTokens, e.InputTokens, e.OutputTokens, e.SuggestionCount,
		e.Latency.Milliseconds(), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Summary aggregates rows created at or after since, ordered by operation.
func (l *Ledger) Summary(ctx context.Context, since time.Time) ([]OperationSummary, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT operation,
		       COUNT(*),
		       SUM(CASE WHEN error_code != '' THEN 1 ELSE 0 END),
		       SUM(input_tokens),
		       SUM(output_tokens),
		       CAST(AVG(latency_ms) AS INTEGER)
		FROM usage_ledger
		WHERE created_at >= ?
		GROUP BY operation
		ORDER BY operation`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query ledger summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []OperationSummary{}
	for rows.Next() {
		var s OperationSummary
		if err := rows.Scan(&s.Operation, &s.Requests, &s.Failures, &s.InputTokens, &s.OutputTokens, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan ledger summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent returns the latest n entries, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return []Entry{}, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, request_id, operation, model, client_id, status_code, error_code,
		       estimated_input_tokens, input_tokens, output_tokens, suggestion_count,
		       latency_ms, created_at
		FROM usage_ledger
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var (
			e         Entry
			latencyMs int64
			createdMs int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Operation, &e.Model, &e.ClientID, &e.StatusCode, &e.ErrorCode,
			&e.EstimatedInputTokens, &e.InputTokens, &e.OutputTokens, &e.SuggestionCount, &latencyMs, &createdMs); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, e)
	}
	return out, rows.Err()
}
