package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/fallback"
)

type fakeBackend struct {
	mu          sync.Mutex
	chatReqs    []ChatRequest
	suggestReqs []SuggestionsRequest

	chatResp    *ChatResponse
	chatErr     error
	suggestResp *SuggestionsResponse
	suggestErr  error

	block chan struct{}
}

func (f *fakeBackend) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.chatResp, f.chatErr
}

func (f *fakeBackend) Suggestions(ctx context.Context, req SuggestionsRequest) (*SuggestionsResponse, error) {
	f.mu.Lock()
	f.suggestReqs = append(f.suggestReqs, req)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.suggestResp, f.suggestErr
}

type notice struct{ title, desc string }

func recorder() (*[]notice, Notifier) {
	var got []notice
	return &got, NotifierFunc(func(title, desc string) { got = append(got, notice{title, desc}) })
}

func assistantReply(text string) *ChatResponse {
	return &ChatResponse{Message: ReplyMessage{Role: domain.RoleAssistant, Content: text}}
}

var testSubs = StaticSource{
	{ID: "1", Name: "Netflix", Price: 15.49, Currency: "USD"},
	{ID: "2", Name: "Gym", Price: 40, Currency: "USD"},
}

func TestSessionSend(t *testing.T) {
	backend := &fakeBackend{chatResp: assistantReply("**Total:** 55.49 USD")}
	s := NewSession(backend, testSubs, SessionOptions{User: UserContext{Locale: "en-US", DefaultCurrency: "USD"}})

	reply, err := s.Send(context.Background(), "  how much do I spend?  ")
	require.NoError(t, err)
	assert.Equal(t, "**Total:** 55.49 USD", reply.Content)

	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "how much do I spend?"},
		{Role: domain.RoleAssistant, Content: "**Total:** 55.49 USD"},
	}, s.Transcript())

	require.Len(t, backend.chatReqs, 1)
	req := backend.chatReqs[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Subscriptions known in client state: ~2.")
	assert.Contains(t, req.Messages[0].Content, `"name":"Netflix"`)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "how much do I spend?"}, req.Messages[1])
	assert.Equal(t, &domain.ChatContext{Currency: "USD", Locale: "en-US"}, req.Context)
}

func TestSessionSendEmpty(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(backend, nil, SessionOptions{})

	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, backend.chatReqs)
	assert.Empty(t, s.Transcript())
}

func TestSessionSendFailure(t *testing.T) {
	backend := &fakeBackend{chatErr: &APIError{Status: 504, Code: "TIMEOUT", Message: "Upstream timeout"}}
	notices, notifier := recorder()
	s := NewSession(backend, nil, SessionOptions{Notifier: notifier})

	reply, err := s.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, MsgChatApology, reply.Content)
	assert.Equal(t, []notice{{TitleChatError, "Upstream timeout"}}, *notices)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleAssistant, Content: MsgChatApology}, transcript[1])
}

func TestSessionSendUnparseable(t *testing.T) {
	backend := &fakeBackend{chatResp: &ChatResponse{Message: ReplyMessage{Role: domain.RoleUser, Content: "?"}}}
	s := NewSession(backend, nil, SessionOptions{})

	reply, err := s.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, MsgUnparseable, reply.Content)
}

func TestSessionSendBusy(t *testing.T) {
	backend := &fakeBackend{chatResp: assistantReply("ok"), block: make(chan struct{})}
	s := NewSession(backend, nil, SessionOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()

	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.chatReqs) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := s.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(backend.block)
	require.NoError(t, <-done)
	assert.Len(t, s.Transcript(), 2)
}

func TestSessionTranscriptCap(t *testing.T) {
	backend := &fakeBackend{chatResp: assistantReply("ok")}
	s := NewSession(backend, nil, SessionOptions{})

	for i := range 30 {
		_, err := s.Send(context.Background(), fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	transcript := s.Transcript()
	require.Len(t, transcript, MaxTranscript)
	assert.Equal(t, "q5", transcript[0].Content)

	last := backend.chatReqs[len(backend.chatReqs)-1]
	require.Len(t, last.Messages, MaxTranscript)
	assert.Equal(t, domain.RoleSystem, last.Messages[0].Role)
	assert.Equal(t, "q5", last.Messages[1].Content)
	assert.Equal(t, "q29", last.Messages[len(last.Messages)-1].Content)
}

func TestSessionRunSuggestion(t *testing.T) {
	backend := &fakeBackend{chatResp: assistantReply("Here is how.")}
	s := NewSession(backend, testSubs, SessionOptions{})

	_, err := s.RunSuggestion(context.Background(), domain.Suggestion{
		Title: "Review Gym", Description: "Costs a lot.", TargetIDs: []string{"2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Analyze: Review Gym. Costs a lot. Targeted: Gym", s.Transcript()[0].Content)
}

func collectStates() (*[]SuggestionView, Observer) {
	var views []SuggestionView
	return &views, func(v SuggestionView) { views = append(views, v) }
}

func statesOf(views []SuggestionView) []SuggestionState {
	out := make([]SuggestionState, len(views))
	for i, v := range views {
		out[i] = v.State
	}
	return out
}

func TestGenerateSuggestionsSuccess(t *testing.T) {
	apiSugs := []domain.Suggestion{{Type: "cancel", Title: "Drop Gym", Description: "Unused.", TargetIDs: []string{"2"}}}
	backend := &fakeBackend{suggestResp: &SuggestionsResponse{Suggestions: apiSugs, Summary: "One change."}}
	views, observer := collectStates()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession(backend, testSubs, SessionOptions{
		Observer: observer,
		Now:      func() time.Time { return now },
		User:     UserContext{DefaultCurrency: "USD"},
	})

	view, err := s.GenerateSuggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, view.State)
	assert.Equal(t, apiSugs, view.Suggestions)
	assert.Equal(t, "One change.", view.Summary)

	assert.Equal(t, []SuggestionState{StateOptimistic, StateLoading, StateSuccess, StateIdle}, statesOf(*views))
	assert.Equal(t, fallback.Synthesize(testSubs, 3), (*views)[0].Suggestions)

	require.Len(t, backend.suggestReqs, 1)
	req := backend.suggestReqs[0]
	require.Len(t, req.Subscriptions, 2)
	assert.Equal(t, "2026-01-02", req.Subscriptions[0].NextPaymentDate)
	assert.Equal(t, &domain.Preferences{DefaultCurrency: "USD"}, req.Preferences)

	final := s.Suggestions()
	assert.Equal(t, StateIdle, final.State)
	assert.Equal(t, apiSugs, final.Suggestions)
	assert.Equal(t, "One change.", final.Summary)
}

func TestGenerateSuggestionsEmptyKeepsFallback(t *testing.T) {
	backend := &fakeBackend{suggestResp: &SuggestionsResponse{Suggestions: []domain.Suggestion{}, Summary: "ignored"}}
	views, observer := collectStates()
	s := NewSession(backend, testSubs, SessionOptions{Observer: observer})

	view, err := s.GenerateSuggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, view.State)
	assert.Equal(t, fallback.Synthesize(testSubs, 3), view.Suggestions)
	assert.Empty(t, view.Summary)
	assert.Equal(t, []SuggestionState{StateOptimistic, StateLoading, StateEmpty, StateIdle}, statesOf(*views))
}

func TestGenerateSuggestionsErrorKeepsFallback(t *testing.T) {
	backend := &fakeBackend{suggestErr: errors.New("Suggestions model error")}
	notices, notifier := recorder()
	s := NewSession(backend, nil, SessionOptions{Notifier: notifier})

	view, err := s.GenerateSuggestions(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, view.State)
	assert.Equal(t, fallback.Synthesize(nil, 3), view.Suggestions)
	assert.Len(t, view.Suggestions, 3)
	assert.Equal(t, []notice{{TitleSuggestErr, "Suggestions model error"}}, *notices)
}

func TestGenerateSuggestionsBusy(t *testing.T) {
	backend := &fakeBackend{suggestResp: &SuggestionsResponse{}, block: make(chan struct{})}
	s := NewSession(backend, testSubs, SessionOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateSuggestions(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.suggestReqs) == 1
	}, time.Second, 5*time.Millisecond)

	view, err := s.GenerateSuggestions(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, StateLoading, view.State)

	close(backend.block)
	require.NoError(t, <-done)
}

func TestSuggestionStateString(t *testing.T) {
	assert.Equal(t, "optimistic", StateOptimistic.String())
	assert.Equal(t, "unknown", SuggestionState(99).String())
	assert.True(t, StateEmpty.Terminal())
	assert.False(t, StateLoading.Terminal())
}
