package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/subdash/assistant-gateway/internal/domain"
)

// Provider SDKs have reported token counts under several names over time.
var (
	inputTokenPaths  = []string{"inputTokenCount", "promptTokenCount", "totalPromptTokens"}
	outputTokenPaths = []string{"outputTokenCount", "candidatesTokenCount", "totalTokens"}
)

// Usage reads token accounting from raw usage metadata. It never fails:
// malformed or missing metadata yields nil.
func Usage(raw []byte) *domain.UsageMeta {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	meta := gjson.ParseBytes(raw)
	if !meta.IsObject() {
		return nil
	}

	u := &domain.UsageMeta{
		InputTokens:  firstCount(meta, inputTokenPaths),
		OutputTokens: firstCount(meta, outputTokenPaths),
	}
	if u.InputTokens == nil && u.OutputTokens == nil {
		return nil
	}
	return u
}

func firstCount(meta gjson.Result, paths []string) *int {
	for _, p := range paths {
		if v := meta.Get(p); v.Type == gjson.Number {
			n := int(v.Int())
			return &n
		}
	}
	return nil
}
