// Package invoker calls the upstream model for the two gateway operations.
//
// DESIGN: Every call races the provider against a deadline. The deadline is
// also attached to the provider's context, so a provider that honours ctx
// aborts its HTTP round trip; a provider that ignores ctx is abandoned and
// its late result lands in a buffered channel nobody reads.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/monitoring"
)

// Operation names, used in timeout messages and telemetry.
const (
	OpChat        = "chat"
	OpSuggestions = "suggestions"
)

// Options configures an Invoker.
type Options struct {
	ChatModel    string
	SuggestModel string
	Timeout      time.Duration
	// Now overrides the sampling clock (tests).
	Now func() time.Time
}

// Reply is a successful generation plus request-side accounting.
type Reply struct {
	*GenerateResponse
	Model string
	// EstimatedInputTokens is a local estimate of the prompt size.
	EstimatedInputTokens int
}

// Invoker builds provider calls and enforces the deadline.
type Invoker struct {
	provider Provider
	opts     Options
}

// New creates an Invoker over provider.
func New(provider Provider, opts Options) *Invoker {
	if opts.ChatModel == "" {
		opts.ChatModel = config.DefaultChatModel
	}
	if opts.SuggestModel == "" {
		opts.SuggestModel = config.DefaultSuggestModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultModelTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Invoker{provider: provider, opts: opts}
}

// Chat sends a sanitized conversation to the chat model.
func (inv *Invoker) Chat(ctx context.Context, msgs []domain.ChatMessage, chatCtx *domain.ChatContext) (*Reply, error) {
	req, err := BuildChatRequest(inv.opts.ChatModel, msgs, chatCtx)
	if err != nil {
		return nil, err
	}
	return inv.generate(ctx, OpChat, req)
}

// Suggestions sends a sanitized snapshot to the structured-output model.
func (inv *Invoker) Suggestions(ctx context.Context, subs []domain.SubscriptionSnapshotItem, prefs *domain.Preferences) (*Reply, error) {
	req, err := BuildSuggestionsRequest(inv.opts.SuggestModel, subs, prefs, inv.opts.Now())
	if err != nil {
		return nil, err
	}
	return inv.generate(ctx, OpSuggestions, req)
}

type outcome struct {
	resp *GenerateResponse
	err  error
}

func (inv *Invoker) generate(ctx context.Context, op string, req *GenerateRequest) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.opts.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		resp, err := inv.provider.Generate(ctx, req)
		done <- outcome{resp: resp, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o = outcome{err: ctx.Err()}
	}

	if o.err != nil {
		return nil, classify(ctx, op, o.err)
	}
	if o.resp == nil {
		o.resp = &GenerateResponse{}
	}
	return &Reply{
		GenerateResponse:     o.resp,
		Model:                req.Model,
		EstimatedInputTokens: estimateInput(req),
	}, nil
}

var fallbackMessages = map[string]string{
	OpChat:        "Chat model error",
	OpSuggestions: "Suggestions model error",
}

// classify maps a provider failure onto the error taxonomy.
func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Warn().Str("operation", op).Err(err).Msg("invoker: upstream call timed out")
		return domain.Timeout(fmt.Sprintf("The %s operation timed out", op), err)
	case errors.Is(err, context.Canceled):
		return domain.ModelError("request cancelled", err)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	msg := err.Error()
	var pe *ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
		if pe.UpstreamStatus != 0 {
			log.Warn().Str("operation", op).Int("upstream_status", pe.UpstreamStatus).Msg("invoker: upstream rejected call")
		}
	}
	if strings.TrimSpace(msg) == "" {
		msg = fallbackMessages[op]
	}
	return domain.ModelError(msg, err)
}

func estimateInput(req *GenerateRequest) int {
	n := monitoring.EstimateTokens(req.SystemInstruction)
	for _, t := range req.Turns {
		n += monitoring.EstimateTokens(t.Text)
	}
	return n
}
