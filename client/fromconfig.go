package client

import (
	"strconv"
	"strings"

	"github.com/cirrusml/cirrus-go/auth"
	"github.com/cirrusml/cirrus-go/config"
	"github.com/cirrusml/cirrus-go/logger"
	"github.com/cirrusml/cirrus-go/retry"
)

// NewFromConfig wires a client from a loaded configuration: transport
// timeout, rate limit, IAM auth, and retry policy. A nil logger gets a
// zerolog-backed one at the configured level.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	b := NewBuilder(log).
		WithTimeout(cfg.HTTP.Timeout).
		WithRateLimit(cfg.HTTP.RateLimit)

	authenticator, err := auth.NewIAMAuthenticator(
		cfg.Auth.TokenURL,
		cfg.Auth.APIKey,
		auth.WithGrantType(cfg.Auth.GrantType),
		auth.WithRefreshAhead(cfg.Auth.RefreshAhead),
		auth.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	b.WithAuthenticator(authenticator)

	if cfg.Retry.MaxAttempts > 1 {
		policy, err := retry.NewPolicy(
			cfg.Retry.MaxAttempts,
			cfg.Retry.Interval,
			cfg.Retry.Exponential,
			matchersFromConfig(cfg.Retry.On)...,
		)
		if err != nil {
			return nil, err
		}
		b.WithRetryPolicy(policy)
	}

	return b.Build()
}

// matchersFromConfig maps retry.on entries (validated by the config package)
// to policy matchers.
func matchersFromConfig(on []string) []retry.Matcher {
	matchers := make([]retry.Matcher, 0, len(on))
	for _, entry := range on {
		switch entry {
		case config.RetryOnTransport:
			matchers = append(matchers, retry.OnTransport())
		case config.RetryOnTimeout:
			matchers = append(matchers, retry.OnTimeout())
		case config.RetryOnServerError:
			matchers = append(matchers, retry.OnServerError())
		case config.RetryOnTokenExpired:
			matchers = append(matchers, retry.OnTokenExpired())
		default:
			if code, ok := strings.CutPrefix(entry, config.RetryOnStatusPrefix); ok {
				if n, err := strconv.Atoi(code); err == nil {
					matchers = append(matchers, retry.OnServiceStatus(n))
				}
			}
		}
	}
	return matchers
}
