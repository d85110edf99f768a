package secrets

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/utils"
)

// Source says where a credential came from.
type Source string

const (
	SourceNone      Source = "none"
	SourceConfig    Source = "config"
	SourceParameter Source = "parameter"
)

// KeyReaderFactory builds a KeyReader on demand, so AWS config is only
// loaded when a parameter name is actually configured.
type KeyReaderFactory func(ctx context.Context) (KeyReader, error)

// SSMKeyReader is the production KeyReaderFactory.
func SSMKeyReader(ctx context.Context) (KeyReader, error) {
	return LoadSSMKeyStore(ctx)
}

// ResolveAPIKey returns the provider credential. An absent credential is not
// an error: the gateway starts and answers UNAUTHORIZED.
func ResolveAPIKey(ctx context.Context, cfg config.ProviderConfig, newReader KeyReaderFactory) (string, Source, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, SourceConfig, nil
	}

	name := strings.TrimSpace(cfg.APIKeyParameter)
	if name == "" || newReader == nil {
		return "", SourceNone, nil
	}

	reader, err := newReader(ctx)
	if err != nil {
		return "", SourceNone, err
	}
	key, err := reader.ReadKey(ctx, name)
	if err != nil {
		return "", SourceNone, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", SourceNone, nil
	}

	log.Info().Str("parameter", name).Str("key", utils.MaskKey(key)).Msg("secrets: api key loaded from parameter store")
	return key, SourceParameter, nil
}
