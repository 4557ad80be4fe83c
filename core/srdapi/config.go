package srdapi

// Config holds configuration for the upstream content API client.
type Config struct {
	// BaseURL is the root of the content API.
	BaseURL string `mapstructure:"base_url" default:"https://www.dnd5eapi.co"`
	// UserAgent is sent on every request.
	UserAgent string `mapstructure:"user_agent" default:"codex-manager/0.1"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// BackoffBaseMillis is the base of the exponential retry backoff.
	BackoffBaseMillis int `mapstructure:"backoff_base_millis" default:"500"`
	// MinIntervalMillis is the minimum spacing between requests.
	MinIntervalMillis int `mapstructure:"min_interval_millis" default:"100"`
}
