// Package retry re-invokes the downstream pipeline on classified-retryable
// failures, with bounded attempts and optional exponential backoff.
package retry

import (
	nethttp "net/http"
	"time"

	"github.com/cirrusml/cirrus-go/transport"
)

// CodeTokenExpired is the identity provider's machine-readable code for an
// expired bearer token on a 401 response.
const CodeTokenExpired = "authentication_token_expired"

// FailureKind tags the closed failure taxonomy retry policies match against.
type FailureKind int

const (
	KindTransport FailureKind = iota
	KindService
	KindTimeout
	KindCancelled
	kindUnknown
)

// Classify maps a pipeline failure to its FailureKind. Failures outside the
// taxonomy (including retry-exhausted and validation errors) are never
// retryable.
func Classify(err error) (FailureKind, bool) {
	switch {
	case transport.IsErrorType(err, transport.TransportFailure):
		return KindTransport, true
	case transport.IsErrorType(err, transport.ServiceFailure):
		return KindService, true
	case transport.IsErrorType(err, transport.TimeoutFailure):
		return KindTimeout, true
	case transport.IsErrorType(err, transport.CancelledFailure):
		return KindCancelled, true
	default:
		return kindUnknown, false
	}
}

// Matcher accepts a failure as retryable when its kind matches and the
// optional predicate (inspecting the classified error) holds.
type Matcher struct {
	Kind FailureKind
	When func(err error) bool
}

func (m Matcher) matches(kind FailureKind, err error) bool {
	if m.Kind != kind {
		return false
	}
	return m.When == nil || m.When(err)
}

// OnTransport retries connection-level failures.
func OnTransport() Matcher {
	return Matcher{Kind: KindTransport}
}

// OnTimeout retries timed-out attempts.
func OnTimeout() Matcher {
	return Matcher{Kind: KindTimeout}
}

// OnService retries any service failure.
func OnService() Matcher {
	return Matcher{Kind: KindService}
}

// OnServiceStatus retries service failures with one of the given status codes.
func OnServiceStatus(statusCodes ...int) Matcher {
	codes := make(map[int]struct{}, len(statusCodes))
	for _, c := range statusCodes {
		codes[c] = struct{}{}
	}
	return Matcher{
		Kind: KindService,
		When: func(err error) bool {
			svcErr, ok := transport.AsServiceError(err)
			if !ok {
				return false
			}
			_, hit := codes[svcErr.StatusCode]
			return hit
		},
	}
}

// OnServerError retries 5xx service failures.
func OnServerError() Matcher {
	return Matcher{
		Kind: KindService,
		When: func(err error) bool {
			svcErr, ok := transport.AsServiceError(err)
			return ok && svcErr.StatusCode >= 500 && svcErr.StatusCode < 600
		},
	}
}

// OnTokenExpired retries a 401 whose error payload carries the identity
// provider's token-expired code. Combined with a bearer stage positioned
// after retry, the re-entered pass refreshes the token before resending.
func OnTokenExpired() Matcher {
	return Matcher{
		Kind: KindService,
		When: func(err error) bool {
			svcErr, ok := transport.AsServiceError(err)
			return ok && svcErr.StatusCode == nethttp.StatusUnauthorized && svcErr.Code() == CodeTokenExpired
		},
	}
}

// Policy bounds retry behavior: total attempts, base backoff interval, and
// the matcher set deciding which failures are retryable.
type Policy struct {
	maxAttempts int
	interval    time.Duration
	exponential bool
	matchers    []Matcher
}

// NewPolicy validates and creates a retry policy. maxAttempts is the total
// attempt bound (1 = exactly one attempt, no retry); interval is the base
// backoff; at least one matcher is required.
func NewPolicy(maxAttempts int, interval time.Duration, exponential bool, matchers ...Matcher) (*Policy, error) {
	if maxAttempts < 1 {
		return nil, transport.NewValidationError("maxAttempts must be at least 1", "max_attempts")
	}
	if interval <= 0 {
		return nil, transport.NewValidationError("interval must be positive", "interval")
	}
	if len(matchers) == 0 {
		return nil, transport.NewValidationError("at least one retry matcher is required", "matchers")
	}
	return &Policy{
		maxAttempts: maxAttempts,
		interval:    interval,
		exponential: exponential,
		matchers:    matchers,
	}, nil
}

// MaxAttempts returns the total attempt bound.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// Interval returns the base backoff interval.
func (p *Policy) Interval() time.Duration { return p.interval }

// Exponential reports whether backoff doubles between attempts.
func (p *Policy) Exponential() bool { return p.exponential }

// Retryable reports whether err matches any configured matcher.
func (p *Policy) Retryable(err error) bool {
	kind, ok := Classify(err)
	if !ok {
		return false
	}
	for _, m := range p.matchers {
		if m.matches(kind, err) {
			return true
		}
	}
	return false
}

// Delay returns the wait duration before attempt number `attempt` (1-based
// count of retries; the first attempt waits nothing). With exponential
// backoff the wait before retry k is interval * 2^(k-1).
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	if !p.exponential {
		return p.interval
	}
	// Cap the shift to avoid overflow on absurd attempt counts
	shift := attempt - 1
	if shift > 20 {
		shift = 20
	}
	return p.interval * time.Duration(1<<shift)
}
