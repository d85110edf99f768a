// Package monitoring - logging.go configures the global zerolog logger.
package monitoring

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/subdash/assistant-gateway/internal/config"
)

// SetupLogging points the global logger at cfg.LogOutput and returns a closer
// for any file it opened. A non-nil override writer wins over LogOutput.
func SetupLogging(cfg config.MonitoringConfig, override io.Writer) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	switch {
	case override != nil:
		out = override
	case cfg.LogOutput == "" || cfg.LogOutput == "stdout":
	case cfg.LogOutput == "stderr":
		out = os.Stderr
	default:
		// #nosec G304 -- path comes from operator configuration
		f, err := os.OpenFile(cfg.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, err
		}
		out, closer = f, f
	}

	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: override != nil}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
