// Package monitoring - tokens.go estimates prompt sizes for telemetry.
package monitoring

import (
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
)

var (
	tokenizer     *tiktoken.Tiktoken
	tokenizerOnce sync.Once
	tokenizerOn   atomic.Bool
)

// EnableTokenizer loads the cl100k_base encoding. Loading may fetch the BPE
// ranks over the network, so only the server entrypoint calls it. When it
// fails, EstimateTokens keeps using the byte ratio.
func EnableTokenizer() {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn().Err(err).Msg("tokenizer unavailable, using byte estimate")
			return
		}
		tokenizer = enc
		tokenizerOn.Store(true)
		log.Debug().Msg("tokenizer loaded (cl100k_base)")
	})
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if tokenizerOn.Load() {
		if n := len(tokenizer.Encode(text, nil, nil)); n > 0 {
			return n
		}
	}
	n := len(text) / config.TokenEstimateRatio
	if n == 0 {
		return 1
	}
	return n
}
