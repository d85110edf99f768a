package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/fallback"
)

// Transcript and notification texts.
const (
	MaxTranscript = 50

	MsgChatApology  = "Sorry, I ran into an error handling that request."
	MsgUnparseable  = "I couldn't parse a response."
	TitleChatError  = "Chat error"
	TitleSuggestErr = "Suggestion error"

	defaultChatErrText    = "Something went wrong"
	defaultSuggestErrText = "Failed to generate suggestions"
)

var (
	// ErrBusy is returned when the same kind of request is already in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrEmptyMessage is returned for a blank chat prompt.
	ErrEmptyMessage = errors.New("empty message")
)

// SubscriptionSource yields the user's current subscriptions.
type SubscriptionSource interface {
	Subscriptions(ctx context.Context) ([]fallback.Subscription, error)
}

// StaticSource is a fixed subscription list.
type StaticSource []fallback.Subscription

// Subscriptions implements SubscriptionSource.
func (s StaticSource) Subscriptions(context.Context) ([]fallback.Subscription, error) {
	return s, nil
}

// Notifier surfaces failures to the user.
type Notifier interface {
	Notify(title, description string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, description string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(title, description string) { f(title, description) }

// SessionOptions configures a Session.
type SessionOptions struct {
	User     UserContext
	Notifier Notifier
	Observer Observer
	Now      func() time.Time
}

// Session is one user's conversation with the assistant plus their
// suggestion cards. Chat sends and suggestion runs are each single-flight.
type Session struct {
	backend  Backend
	source   SubscriptionSource
	user     UserContext
	notifier Notifier
	observer Observer
	now      func() time.Time

	sending    atomic.Bool
	suggesting atomic.Bool

	mu         sync.Mutex
	transcript []domain.ChatMessage
	view       SuggestionView
}

// NewSession creates a session. A nil source behaves as an empty list.
func NewSession(backend Backend, source SubscriptionSource, opts SessionOptions) *Session {
	if source == nil {
		source = StaticSource(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string, string) {})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		backend:  backend,
		source:   source,
		user:     opts.User,
		notifier: opts.Notifier,
		observer: opts.Observer,
		now:      opts.Now,
	}
}

// Transcript returns a copy of the visible conversation.
func (s *Session) Transcript() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Suggestions returns the current suggestion view.
func (s *Session) Suggestions() SuggestionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneView(s.view)
}

func cloneView(v SuggestionView) SuggestionView {
	v.Suggestions = append([]domain.Suggestion(nil), v.Suggestions...)
	return v
}

func (s *Session) appendMessage(m domain.ChatMessage) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, m)
	if over := len(s.transcript) - MaxTranscript; over > 0 {
		s.transcript = append([]domain.ChatMessage(nil), s.transcript[over:]...)
	}
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) subscriptions(ctx context.Context) []fallback.Subscription {
	subs, err := s.source.Subscriptions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("assistant: subscription source failed, continuing with none")
		return nil
	}
	return subs
}

// Send appends text as a user message, asks the gateway for a reply and
// appends it. Failures append an apology and notify; the returned message
// is always the one appended last.
func (s *Session) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if !s.sending.CompareAndSwap(false, true) {
		return domain.ChatMessage{}, ErrBusy
	}
	defer s.sending.Store(false)

	history := s.appendMessage(domain.ChatMessage{Role: domain.RoleUser, Content: trimmed})

	subs := s.subscriptions(ctx)
	instruction := SystemInstruction(subs, s.user)
	log.Debug().
		Int("snapshot_len", len(BuildSnapshot(subs))).
		Int("instruction_len", len(instruction)).
		Msg("assistant: sending chat")

	// The system instruction takes one slot of the server's message window.
	if over := len(history) - (MaxTranscript - 1); over > 0 {
		history = history[over:]
	}
	wire := make([]domain.ChatMessage, 0, len(history)+1)
	wire = append(wire, domain.ChatMessage{Role: domain.RoleSystem, Content: instruction})
	wire = append(wire, history...)

	resp, err := s.backend.Chat(ctx, ChatRequest{Messages: wire, Context: s.user.ChatContext()})
	if err != nil {
		desc := err.Error()
		if desc == "" {
			desc = defaultChatErrText
		}
		s.notifier.Notify(TitleChatError, desc)
		apology := domain.ChatMessage{Role: domain.RoleAssistant, Content: MsgChatApology}
		s.appendMessage(apology)
		return apology, err
	}

	reply := domain.ChatMessage{Role: domain.RoleAssistant, Content: MsgUnparseable}
	if resp != nil && resp.Message.Role == domain.RoleAssistant {
		reply.Content = resp.Message.Content
	}
	s.appendMessage(reply)
	return reply, nil
}

// RunSuggestion sends a chat prompt built from a suggestion card.
func (s *Session) RunSuggestion(ctx context.Context, sug domain.Suggestion) (domain.ChatMessage, error) {
	return s.Send(ctx, PromptFromSuggestion(sug, s.subscriptions(ctx)))
}

func (s *Session) transition(state SuggestionState, suggestions []domain.Suggestion, summary string) {
	s.mu.Lock()
	s.view.State = state
	if suggestions != nil {
		s.view.Suggestions = suggestions
	}
	s.view.Summary = summary
	view := cloneView(s.view)
	s.mu.Unlock()

	if state.Terminal() {
		log.Debug().Str("state", state.String()).Int("suggestions", len(view.Suggestions)).Msg("assistant: suggestion run settled")
	}

	if s.observer != nil {
		s.observer(view)
	}
}

// GenerateSuggestions shows fallback cards immediately, then replaces them
// with the gateway's suggestions when it returns a non-empty list. The
// fallback cards survive an empty or failed call. It returns the view of
// the terminal state.
func (s *Session) GenerateSuggestions(ctx context.Context) (SuggestionView, error) {
	if !s.suggesting.CompareAndSwap(false, true) {
		return s.Suggestions(), ErrBusy
	}
	defer s.suggesting.Store(false)

	subs := s.subscriptions(ctx)
	s.transition(StateOptimistic, fallback.Synthesize(subs, config.DefaultSuggestionLimit), "")
	s.transition(StateLoading, nil, "")

	resp, err := s.backend.Suggestions(ctx, SuggestionsRequest{
		Subscriptions: WirePayload(subs, s.now()),
		Preferences:   s.user.Preferences(),
	})

	switch {
	case err != nil:
		desc := err.Error()
		if desc == "" {
			desc = defaultSuggestErrText
		}
		s.notifier.Notify(TitleSuggestErr, desc)
		s.transition(StateError, nil, "")
	case resp == nil || len(resp.Suggestions) == 0:
		s.transition(StateEmpty, nil, "")
	default:
		s.transition(StateSuccess, resp.Suggestions, resp.Summary)
	}
	final := s.Suggestions()
	s.transition(StateIdle, nil, final.Summary)
	return final, err
}
