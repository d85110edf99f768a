// Package config loads and validates gateway configuration.
//
// DESIGN: Configuration is YAML with ${VAR} / ${VAR:-default} expansion applied
// before parsing. An embedded default config lets the gateway run from
// environment variables alone.
//
// A missing model credential is deliberately NOT a validation error: the server
// starts and both operations answer UNAUTHORIZED until a key is configured.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Transport names for the model provider.
const (
	TransportSDK  = "sdk"
	TransportREST = "rest"
)

// Config is the root gateway configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Provider   ProviderConfig   `yaml:"provider"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Store      StoreConfig      `yaml:"store"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// ProviderConfig describes the upstream model provider.
type ProviderConfig struct {
	Transport       string        `yaml:"transport"`
	APIKey          string        `yaml:"api_key"`
	APIKeyParameter string        `yaml:"api_key_parameter"` // SSM parameter holding the key
	Endpoint        string        `yaml:"endpoint"`
	ChatModel       string        `yaml:"chat_model"`
	SuggestModel    string        `yaml:"suggest_model"`
	Timeout         time.Duration `yaml:"timeout"`
}

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	Limit           int           `yaml:"limit"`
	Window          time.Duration `yaml:"window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxBuckets      int           `yaml:"max_buckets"`
}

// MonitoringConfig configures logging and telemetry.
type MonitoringConfig struct {
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogOutput     string `yaml:"log_output"`
	TelemetryPath string `yaml:"telemetry_path"`
}

// StoreConfig configures the usage ledger.
type StoreConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SQLitePath string `yaml:"sqlite_path"`
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvWithDefaults replaces ${VAR} and ${VAR:-default} references.
// Unset variables without a default expand to the empty string.
func ExpandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := envPattern.FindStringSubmatch(m)
		if v, ok := os.LookupEnv(sub[1]); ok && v != "" {
			return v
		}
		return sub[2]
	})
}

// Default returns the embedded configuration with the environment applied.
func Default() (*Config, error) {
	return LoadFromBytes(defaultYAML)
}

// Load reads a config file. An empty path loads the embedded default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	// #nosec G304 -- path is an operator-supplied config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML config bytes, fills defaults and validates.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := ExpandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = MaxRequestBodySize
	}

	c.Provider.Transport = strings.ToLower(strings.TrimSpace(c.Provider.Transport))
	if c.Provider.Transport == "" {
		c.Provider.Transport = TransportSDK
	}
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.Endpoint == "" {
		c.Provider.Endpoint = DefaultGeminiEndpoint
	}
	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = DefaultChatModel
	}
	if c.Provider.SuggestModel == "" {
		c.Provider.SuggestModel = DefaultSuggestModel
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultModelTimeout
	}

	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = DefaultRateLimit
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = DefaultRateWindow
	}
	if c.RateLimit.CleanupInterval == 0 {
		c.RateLimit.CleanupInterval = DefaultCleanupInterval
	}
	if c.RateLimit.MaxBuckets == 0 {
		c.RateLimit.MaxBuckets = MaxRateLimitBuckets
	}

	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
	if c.Monitoring.LogFormat == "" {
		c.Monitoring.LogFormat = "console"
	}
	if c.Monitoring.LogOutput == "" {
		c.Monitoring.LogOutput = "stdout"
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes must not be negative"))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Provider.Timeout {
		errs = append(errs, fmt.Errorf("server.write_timeout (%s) must exceed provider.timeout (%s)",
			c.Server.WriteTimeout, c.Provider.Timeout))
	}
	switch c.Provider.Transport {
	case TransportSDK, TransportREST:
	default:
		errs = append(errs, fmt.Errorf("provider.transport must be %q or %q, got %q",
			TransportSDK, TransportREST, c.Provider.Transport))
	}
	if c.Provider.Timeout < 0 {
		errs = append(errs, errors.New("provider.timeout must not be negative"))
	}
	if c.RateLimit.Limit < 1 {
		errs = append(errs, errors.New("rate_limit.limit must be at least 1"))
	}
	if c.RateLimit.Window < time.Second {
		errs = append(errs, errors.New("rate_limit.window must be at least 1s"))
	}
	switch c.Monitoring.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("monitoring.log_format must be console or json, got %q", c.Monitoring.LogFormat))
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.SQLitePath) == "" {
		errs = append(errs, errors.New("store.sqlite_path is required when the store is enabled"))
	}

	return errors.Join(errs...)
}

// HasCredential reports whether a model credential is configured, directly
// or through a parameter store reference.
func (p ProviderConfig) HasCredential() bool {
	return p.APIKey != "" || strings.TrimSpace(p.APIKeyParameter) != ""
}
