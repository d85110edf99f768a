package sanitize

import (
	"math"

	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/utils"
)

// str returns the trimmed, capped string at path. ok is false when the field
// is missing, not a string, or blank.
func str(obj gjson.Result, path string, maxLen int) (string, bool) {
	v := obj.Get(path)
	if v.Type != gjson.String {
		return "", false
	}
	s := utils.TrimCap(v.Str, maxLen)
	return s, s != ""
}

// num returns the finite number at path.
func num(obj gjson.Result, path string) (float64, bool) {
	v := obj.Get(path)
	if v.Type != gjson.Number {
		return 0, false
	}
	if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0, false
	}
	return v.Num, true
}

// boolean returns the JSON boolean at path.
func boolean(obj gjson.Result, path string) (bool, bool) {
	v := obj.Get(path)
	switch v.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	}
	return false, false
}
