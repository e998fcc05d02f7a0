// Package config loads and validates SDK configuration from defaults, YAML
// files, and environment variables.
package config

import "time"

// Config is the root SDK configuration.
type Config struct {
	Service ServiceConfig `koanf:"service"`
	Auth    AuthConfig    `koanf:"auth"`
	HTTP    HTTPConfig    `koanf:"http"`
	Retry   RetryConfig   `koanf:"retry"`
	Log     LogConfig     `koanf:"log"`
}

// ServiceConfig locates the AI service.
type ServiceConfig struct {
	URL string `koanf:"url" validate:"required,url"`
}

// AuthConfig configures the identity endpoint exchange.
type AuthConfig struct {
	TokenURL  string `koanf:"token_url" validate:"required,url"`
	APIKey    string `koanf:"apikey" validate:"required"`
	GrantType string `koanf:"grant_type"`
	// RefreshAhead refreshes tokens this long before their expiry.
	RefreshAhead time.Duration `koanf:"refresh_ahead"`
}

// HTTPConfig configures the transport layer.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	// RateLimit caps outbound requests per second (0 disables throttling).
	RateLimit float64 `koanf:"rate_limit"`
}

// RetryConfig configures the retry stage.
type RetryConfig struct {
	// MaxAttempts is the total attempt bound; 1 disables retries.
	MaxAttempts int           `koanf:"max_attempts" validate:"min=1"`
	Interval    time.Duration `koanf:"interval"`
	Exponential bool          `koanf:"exponential"`
	// On lists retryable failure classes: transport, timeout, server_error,
	// token_expired, or status:<code>.
	On []string `koanf:"on"`
}

// LogConfig configures SDK logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}
