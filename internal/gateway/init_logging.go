package gateway

import (
	"time"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/monitoring"
)

func buildInitEvent(cfg *config.Config, providerReady, ledgerEnabled bool) *monitoring.InitEvent {
	return &monitoring.InitEvent{
		Timestamp:            time.Now(),
		Event:                "gateway_init",
		ServerPort:           cfg.Server.Port,
		ServerReadTimeoutMs:  cfg.Server.ReadTimeout.Milliseconds(),
		ServerWriteTimeoutMs: cfg.Server.WriteTimeout.Milliseconds(),
		Transport:            cfg.Provider.Transport,
		ChatModel:            cfg.Provider.ChatModel,
		SuggestModel:         cfg.Provider.SuggestModel,
		ModelTimeoutMs:       cfg.Provider.Timeout.Milliseconds(),
		HasAPIKey:            cfg.Provider.HasCredential(),
		ProviderReady:        providerReady,
		APIKeyFromParameter:  cfg.Provider.APIKey == "" && cfg.Provider.APIKeyParameter != "",
		RateLimit:            cfg.RateLimit.Limit,
		RateWindowMs:         cfg.RateLimit.Window.Milliseconds(),
		LedgerEnabled:        ledgerEnabled,
		TelemetryPath:        cfg.Monitoring.TelemetryPath,
	}
}
