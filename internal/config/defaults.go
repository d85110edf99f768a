// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// TokenEstimateRatio is the approximate number of characters per token.
// Used for rough token counting when the tokenizer is unavailable.
const TokenEstimateRatio = 4

// =============================================================================
// INPUT LIMITS
// =============================================================================

// MaxMessages is how many chat messages survive sanitization (the most recent ones).
const MaxMessages = 50

// MaxSubscriptions is how many snapshot items survive sanitization (the first ones).
const MaxSubscriptions = 200

// MaxContentLen caps free-text chat content.
const MaxContentLen = 4000

// MaxNameLen caps identifiers, names and categories.
const MaxNameLen = 200

// MaxCurrencyLen caps currency codes.
const MaxCurrencyLen = 10

// MaxBillingCycleLen caps billing cycle labels.
const MaxBillingCycleLen = 30

// MaxDateLen caps date strings.
const MaxDateLen = 40

// MaxLocaleLen caps locale and timezone strings.
const MaxLocaleLen = 100

// MaxDescriptionLen caps suggestion descriptions and the summary.
const MaxDescriptionLen = 1000

// MaxPromptChars caps the suggestions instruction text sent to the model.
const MaxPromptChars = 20000

// =============================================================================
// MODEL INVOCATION
// =============================================================================

// DefaultChatModel is the conversational model.
const DefaultChatModel = "gemini-1.5-pro"

// DefaultSuggestModel is the structured-output model.
const DefaultSuggestModel = "gemini-1.5-flash"

// DefaultModelTimeout bounds every upstream model call.
const DefaultModelTimeout = 25 * time.Second

// DefaultGeminiEndpoint is the REST base URL used by the rest transport.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// DefaultSuggestionLimit is how many fallback suggestions are synthesized.
const DefaultSuggestionLimit = 3

// =============================================================================
// CLEANUP AND MAINTENANCE
// =============================================================================

// DefaultCleanupInterval is the frequency for background cleanup goroutines.
const DefaultCleanupInterval = 5 * time.Minute

// =============================================================================
// RATE LIMITING
// =============================================================================

// DefaultRateLimit is admissions per window per client.
const DefaultRateLimit = 60

// DefaultRateWindow is the fixed window length.
const DefaultRateWindow = 60 * time.Second

// MaxRateLimitBuckets prevents memory exhaustion from too many client buckets.
const MaxRateLimitBuckets = 10000

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultPort is the gateway listen port.
const DefaultPort = 8787

// MaxRequestBodySize is the maximum allowed request body (1MB).
const MaxRequestBodySize = 1 * 1024 * 1024

// MaxResponseSize is the maximum allowed upstream response body (10MB).
const MaxResponseSize = 10 * 1024 * 1024

// MaxErrorBodyLogLen limits error response body in logs to prevent bloat.
const MaxErrorBodyLogLen = 500

// DefaultServerReadTimeout for HTTP server.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout must outlive DefaultModelTimeout.
const DefaultServerWriteTimeout = 60 * time.Second

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second
