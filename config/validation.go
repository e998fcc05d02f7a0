package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Retryable failure classes accepted in retry.on.
const (
	RetryOnTransport    = "transport"
	RetryOnTimeout      = "timeout"
	RetryOnServerError  = "server_error"
	RetryOnTokenExpired = "token_expired"
	// RetryOnStatusPrefix selects specific status codes, e.g. "status:429".
	RetryOnStatusPrefix = "status:"
)

var validate = validator.New()

// Validate checks struct tags first, then the semantic rules tags cannot
// express. It returns an error describing the first failed check.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if err := validateRetry(&cfg.Retry); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}
	if cfg.HTTP.Timeout < 0 {
		return fmt.Errorf("http config: timeout cannot be negative")
	}
	if cfg.HTTP.RateLimit < 0 {
		return fmt.Errorf("http config: rate_limit cannot be negative")
	}
	if cfg.Auth.RefreshAhead < 0 {
		return fmt.Errorf("auth config: refresh_ahead cannot be negative")
	}
	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cfg.MaxAttempts > 1 && len(cfg.On) == 0 {
		return fmt.Errorf("at least one retryable failure class is required when max_attempts > 1")
	}
	for _, on := range cfg.On {
		if err := validateRetryOn(on); err != nil {
			return err
		}
	}
	return nil
}

func validateRetryOn(on string) error {
	switch on {
	case RetryOnTransport, RetryOnTimeout, RetryOnServerError, RetryOnTokenExpired:
		return nil
	}
	if code, ok := strings.CutPrefix(on, RetryOnStatusPrefix); ok {
		n, err := strconv.Atoi(code)
		if err != nil || n < 100 || n > 599 {
			return fmt.Errorf("invalid status code in retry.on entry %q", on)
		}
		return nil
	}
	return fmt.Errorf("unknown retry.on entry %q", on)
}
