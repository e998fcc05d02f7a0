package retry

import (
	"context"
	"time"

	"github.com/cirrusml/cirrus-go/logger"
	"github.com/cirrusml/cirrus-go/pipeline"
	"github.com/cirrusml/cirrus-go/transport"
)

// Interceptor re-invokes the remainder of the chain on retryable failures.
// It is stateless and reentrant: attempt counters and backoff intervals are
// locals of each invocation, so one instance can serve concurrent requests.
//
// Each attempt re-enters the pipeline through the chain value this stage was
// handed, i.e. at the position just after itself. Stages installed before
// retry run once per logical request; stages after it (bearer auth in
// particular) run once per attempt.
type Interceptor struct {
	policy *Policy
	log    logger.Logger
}

var (
	_ pipeline.Interceptor      = (*Interceptor)(nil)
	_ pipeline.AsyncInterceptor = (*Interceptor)(nil)
)

// NewInterceptor creates a retry stage for the given policy. The logger is
// optional; when present, retries are logged at debug level.
func NewInterceptor(policy *Policy, log logger.Logger) (*Interceptor, error) {
	if policy == nil {
		return nil, transport.NewValidationError("retry policy is required", "policy")
	}
	return &Interceptor{policy: policy, log: log}, nil
}

// Intercept runs the downstream chain up to MaxAttempts times, sleeping the
// backoff interval on the calling goroutine between attempts. A failure
// matching no matcher propagates immediately and unchanged; exhausting the
// bound raises a retry-exhausted failure wrapping the last cause.
func (it *Interceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain pipeline.Chain) (*transport.Response, error) {
	backoff := it.policy.Interval()
	var lastErr error

	for attempt := 0; attempt < it.policy.MaxAttempts(); attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
			it.logRetry(req, attempt, backoff)
		}

		resp, err := chain.Proceed(ctx, req, decode)
		if err == nil {
			return resp, nil
		}
		if !it.policy.Retryable(err) {
			return nil, err
		}
		lastErr = err
		if it.policy.Exponential() && attempt > 0 {
			backoff *= 2
		}
	}
	return nil, transport.NewRetryExhaustedError(it.policy.MaxAttempts(), lastErr)
}

// InterceptAsync mirrors Intercept without blocking: each backoff wait is a
// scheduled continuation on the chain executor, and cancellation of the
// returned future stops pending timers before the next attempt fires.
func (it *Interceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain pipeline.AsyncChain) *transport.Future {
	out := transport.NewFuture(chain.Executor())
	it.attemptAsync(ctx, req, decode, chain, 0, out)
	return out
}

func (it *Interceptor) attemptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain pipeline.AsyncChain, attempt int, out *transport.Future) {
	if out.Cancelled() {
		return
	}

	inner := chain.Proceed(ctx, req, decode)
	out.OnCancel(func() { inner.Cancel() })
	inner.OnComplete(func(resp *transport.Response, err error) {
		if err == nil {
			out.Complete(resp, nil)
			return
		}
		if !it.policy.Retryable(err) {
			out.Complete(nil, err)
			return
		}
		next := attempt + 1
		if next >= it.policy.MaxAttempts() {
			out.Complete(nil, transport.NewRetryExhaustedError(it.policy.MaxAttempts(), err))
			return
		}
		if out.Cancelled() {
			return
		}
		delay := it.policy.Delay(next)
		it.logRetry(req, next, delay)
		cancelTimer := chain.Executor().Schedule(delay, func() {
			it.attemptAsync(ctx, req, decode, chain, next, out)
		})
		out.OnCancel(func() { cancelTimer() })
	})
}

func (it *Interceptor) logRetry(req *transport.Request, attempt int, backoff time.Duration) {
	if it.log == nil {
		return
	}
	it.log.Debug().
		Str("method", req.Method()).
		Str("url", req.URL()).
		Int("attempt", attempt+1).
		Dur("backoff", backoff).
		Msg("retrying request")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return transport.NewCancelledError("backoff wait aborted", ctx.Err())
	}
}
