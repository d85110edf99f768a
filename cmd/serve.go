package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/subdash/assistant-gateway/internal/config"
	"github.com/subdash/assistant-gateway/internal/gateway"
	"github.com/subdash/assistant-gateway/internal/invoker"
	"github.com/subdash/assistant-gateway/internal/monitoring"
	"github.com/subdash/assistant-gateway/internal/secrets"
	"github.com/subdash/assistant-gateway/internal/store"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Run the gateway on the configured port.

Without --config the embedded defaults are used and every setting can be
overridden through environment variables (GEMINI_API_KEY, GATEWAY_PORT,
LOG_LEVEL, LEDGER_ENABLED, ...).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to a YAML config file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	logCloser, err := monitoring.SetupLogging(cfg.Monitoring, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	monitoring.EnableTokenizer()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := gateway.Deps{}

	key, source, err := secrets.ResolveAPIKey(ctx, cfg.Provider, secrets.SSMKeyReader)
	if err != nil {
		return fmt.Errorf("resolve api key: %w", err)
	}
	if key == "" {
		log.Warn().Msg("serve: no model credential configured, requests will be rejected with UNAUTHORIZED")
	} else {
		provider, err := newProvider(ctx, cfg.Provider, key)
		if err != nil {
			return err
		}
		deps.Invoker = invoker.New(provider, invoker.Options{
			ChatModel:    cfg.Provider.ChatModel,
			SuggestModel: cfg.Provider.SuggestModel,
			Timeout:      cfg.Provider.Timeout,
		})
		log.Info().Str("source", string(source)).Str("transport", cfg.Provider.Transport).Msg("serve: model provider ready")
	}

	if cfg.Store.Enabled {
		ledger, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		defer func() { _ = ledger.Close() }()
		deps.Ledger = ledger
	}

	gw, err := gateway.New(cfg, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(gw.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return gw.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newProvider(ctx context.Context, cfg config.ProviderConfig, key string) (invoker.Provider, error) {
	switch cfg.Transport {
	case config.TransportREST:
		return invoker.NewRESTProvider(cfg.Endpoint, key, &http.Client{}), nil
	default:
		return invoker.NewGenAIProvider(ctx, key)
	}
}
