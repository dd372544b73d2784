// Package constants provides shared constants used throughout the eventmap
// codebase: timeouts, limits, file permissions, and upstream endpoints.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout bounds a single HTTP round trip.
	DefaultHTTPTimeout = 15 * time.Second

	// ProviderTimeout is the per-provider budget inside a fallback chain.
	ProviderTimeout = 20 * time.Second

	// LLMTimeout is the per-provider budget for model-backed providers.
	LLMTimeout = 60 * time.Second

	// RetryBackoff is the base backoff for transient HTTP failures.
	RetryBackoff = 250 * time.Millisecond
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0o755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0o644
)

// Limit constants
const (
	// MaxRetries is the number of times a transient HTTP failure is retried.
	MaxRetries = 2

	// MaxConcurrentSources is the default number of chains fetched at once.
	MaxConcurrentSources = 4

	// DefaultRetentionYears is the default time-window width.
	DefaultRetentionYears = 5

	// MaxLLMTokens caps the completion length requested from chat models.
	MaxLLMTokens = 1100
)

// Upstream endpoints
const (
	FinnhubBaseURL    = "https://finnhub.io/api/v1"
	YahooSearchURL    = "https://query2.finance.yahoo.com/v1/finance/search"
	GoogleNewsRSSURL  = "https://news.google.com/rss/search"
	OpenRouterChatURL = "https://openrouter.ai/api/v1/chat/completions"
)
