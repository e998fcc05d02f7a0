package pipeline

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/cirrusml/cirrus-go/transport"
)

// BurstMultiplier sizes the default burst relative to the sustained rate.
const BurstMultiplier = 2

// RateLimitInterceptor throttles outbound calls to the configured sustained
// rate. A request is never dropped: the sync path waits for a token, the
// async path defers the remainder of the chain until a token is available.
type RateLimitInterceptor struct {
	limiter *rate.Limiter
}

var (
	_ Interceptor      = (*RateLimitInterceptor)(nil)
	_ AsyncInterceptor = (*RateLimitInterceptor)(nil)
)

// NewRateLimitInterceptor creates a throttling stage allowing
// requestsPerSecond sustained with a burst of requestsPerSecond *
// BurstMultiplier. A non-positive rate disables throttling.
func NewRateLimitInterceptor(requestsPerSecond float64) *RateLimitInterceptor {
	if requestsPerSecond <= 0 {
		return &RateLimitInterceptor{}
	}
	burst := int(requestsPerSecond) * BurstMultiplier
	if burst < 1 {
		burst = 1
	}
	return &RateLimitInterceptor{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Intercept blocks until a token is available, then forwards the request.
func (rl *RateLimitInterceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error) {
	if rl.limiter != nil {
		if err := rl.limiter.Wait(ctx); err != nil {
			return nil, transport.NewCancelledError("rate limit wait aborted", err)
		}
	}
	return chain.Proceed(ctx, req, decode)
}

// InterceptAsync reserves a token and schedules the remainder of the chain
// after the reservation's delay; no goroutine is occupied during the wait.
func (rl *RateLimitInterceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain AsyncChain) *transport.Future {
	if rl.limiter == nil {
		return chain.Proceed(ctx, req, decode)
	}

	reservation := rl.limiter.Reserve()
	if !reservation.OK() {
		return transport.CompletedFuture(chain.Executor(), nil,
			transport.NewValidationError("rate limiter cannot satisfy request", "rate_limit"))
	}
	delay := reservation.Delay()
	if delay <= 0 {
		return chain.Proceed(ctx, req, decode)
	}

	out := transport.NewFuture(chain.Executor())
	cancelTimer := chain.Executor().Schedule(delay, func() {
		if out.Cancelled() {
			return
		}
		chain.Proceed(ctx, req, decode).Bind(out)
	})
	out.OnCancel(func() {
		if cancelTimer() {
			reservation.Cancel()
		}
	})
	return out
}
