// Package normalize turns raw model output into validated response values.
//
// DESIGN: Structured output is recovered by an ordered list of extraction
// strategies; the first one yielding a JSON object wins. Each recovered
// suggestion is validated field by field: mandatory fields gate the item,
// optional fields are kept only when well-formed.
package normalize

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Strategy extracts a JSON object from model text.
type Strategy interface {
	Name() string
	Extract(text string) (gjson.Result, bool)
}

// DefaultStrategies is the recovery order used by Suggestions.
var DefaultStrategies = []Strategy{Direct{}, Fenced{}}

// Direct parses the whole text as a JSON object.
type Direct struct{}

func (Direct) Name() string { return "direct" }

func (Direct) Extract(text string) (gjson.Result, bool) {
	return parseObject(text)
}

// Fenced parses the first ``` or ```json block holding a JSON object.
type Fenced struct{}

var fencePattern = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\r?\\n?(.*?)```")

func (Fenced) Name() string { return "fenced" }

func (Fenced) Extract(text string) (gjson.Result, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if obj, ok := parseObject(m[1]); ok {
			return obj, true
		}
	}
	return gjson.Result{}, false
}

func parseObject(text string) (gjson.Result, bool) {
	text = strings.TrimSpace(text)
	if !gjson.Valid(text) {
		return gjson.Result{}, false
	}
	obj := gjson.Parse(text)
	return obj, obj.IsObject()
}

// Extract runs strategies in order and reports which one succeeded.
func Extract(text string, strategies []Strategy) (gjson.Result, string, bool) {
	for _, s := range strategies {
		if obj, ok := s.Extract(text); ok {
			return obj, s.Name(), true
		}
	}
	return gjson.Result{}, "", false
}
