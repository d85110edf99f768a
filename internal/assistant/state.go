package assistant

import "github.com/subdash/assistant-gateway/internal/domain"

// SuggestionState is the lifecycle of one suggestions run.
//
//	Idle -> Optimistic -> Loading -> Success | Empty | Error -> Idle
type SuggestionState int

const (
	StateIdle SuggestionState = iota
	StateOptimistic
	StateLoading
	StateSuccess
	StateEmpty
	StateError
)

func (s SuggestionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptimistic:
		return "optimistic"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s SuggestionState) Terminal() bool {
	return s == StateSuccess || s == StateEmpty || s == StateError
}

// SuggestionView is what an observer renders.
type SuggestionView struct {
	State       SuggestionState
	Suggestions []domain.Suggestion
	Summary     string
}

// Observer receives every state transition.
type Observer func(SuggestionView)
