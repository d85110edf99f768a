package normalize

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/domain"
	"github.com/subdash/assistant-gateway/internal/sanitize"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// MsgInvalidOutput is reported when no strategy recovers an object.
const MsgInvalidOutput = "model did not return valid structured output"

// Payload is a normalized suggestions answer.
type Payload struct {
	Suggestions []domain.Suggestion
	Summary     string
	// Strategy names the extraction strategy that succeeded.
	Strategy string
}

// Suggestions normalizes raw model text. Blank output is an empty answer,
// not an error.
func Suggestions(raw string) (*Payload, error) {
	return SuggestionsWith(raw, DefaultStrategies)
}

// SuggestionsWith normalizes raw model text with a custom strategy list.
func SuggestionsWith(raw string, strategies []Strategy) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return &Payload{Suggestions: []domain.Suggestion{}}, nil
	}

	obj, name, ok := Extract(raw, strategies)
	if !ok {
		return nil, domain.ModelError(MsgInvalidOutput, nil)
	}

	out := &Payload{Strategy: name, Suggestions: []domain.Suggestion{}}
	if list := obj.Get("suggestions"); list.IsArray() {
		out.Suggestions, _ = sanitize.Collect(list.Array(), suggestion)
	}
	if s := obj.Get("summary"); s.Type == gjson.String {
		out.Summary = utils.TrimCap(s.Str, config.MaxDescriptionLen)
	}
	return out, nil
}

func suggestion(v gjson.Result) (domain.Suggestion, bool) {
	var s domain.Suggestion
	if !v.IsObject() {
		return s, false
	}

	var ok bool
	if s.Type, ok = requiredString(v, "type", config.MaxNameLen); !ok {
		return s, false
	}
	if s.Title, ok = requiredString(v, "title", config.MaxNameLen); !ok {
		return s, false
	}
	if s.Description, ok = requiredString(v, "description", config.MaxDescriptionLen); !ok {
		return s, false
	}
	ids := v.Get("targetIds")
	if !ids.IsArray() {
		return s, false
	}
	s.TargetIDs, _ = sanitize.Collect(ids.Array(), targetID)

	s.ImpactEstimate = impact(v.Get("impactEstimate"))
	if c := v.Get("confidence"); c.Type == gjson.String {
		s.Confidence, _ = domain.ParseConfidence(c.Str)
	}
	if acts := v.Get("actions"); acts.IsArray() {
		s.Actions, _ = sanitize.Collect(acts.Array(), action)
		if len(s.Actions) == 0 {
			s.Actions = nil
		}
	}
	return s, true
}

func requiredString(v gjson.Result, key string, maxLen int) (string, bool) {
	f := v.Get(key)
	if f.Type != gjson.String {
		return "", false
	}
	s := utils.TrimCap(f.Str, maxLen)
	return s, s != ""
}

// targetID keeps string ids and stringifies numeric ones.
func targetID(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		id := utils.TrimCap(v.Str, config.MaxNameLen)
		return id, id != ""
	case gjson.Number:
		return v.Raw, true
	}
	return "", false
}

func impact(v gjson.Result) *domain.ImpactEstimate {
	if !v.IsObject() {
		return nil
	}
	var e domain.ImpactEstimate
	if c := v.Get("currency"); c.Type == gjson.String {
		e.Currency = utils.TrimCap(c.Str, config.MaxCurrencyLen)
	}
	e.Monthly = finite(v.Get("monthly"))
	e.Yearly = finite(v.Get("yearly"))
	if e.Empty() {
		return nil
	}
	return &e
}

func finite(v gjson.Result) *float64 {
	if v.Type != gjson.Number || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return nil
	}
	n := v.Num
	return &n
}

func action(v gjson.Result) (domain.SuggestionAction, bool) {
	var a domain.SuggestionAction
	if !v.IsObject() {
		return a, false
	}
	var ok bool
	if a.Type, ok = requiredString(v, "type", config.MaxNameLen); !ok {
		return a, false
	}
	if a.Label, ok = requiredString(v, "label", config.MaxNameLen); !ok {
		return a, false
	}
	if id := v.Get("targetId"); id.Type == gjson.String {
		a.TargetID = utils.TrimCap(id.Str, config.MaxNameLen)
	}
	return a, true
}
