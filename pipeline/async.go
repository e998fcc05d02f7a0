package pipeline

import (
	"context"

	"github.com/cirrusml/cirrus-go/transport"
)

// AsyncInterceptor is the non-blocking counterpart of Interceptor. Instead of
// returning a result it returns a future; continuation composition runs on
// the chain's executor.
type AsyncInterceptor interface {
	InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain AsyncChain) *transport.Future
}

// DualInterceptor is a stage usable on both request paths. All built-in
// interceptors (logging, trace, rate limit, span, retry, bearer) implement it.
type DualInterceptor interface {
	Interceptor
	AsyncInterceptor
}

// AsyncChain is the asynchronous pipeline pass. Dispatch mirrors Chain; the
// terminal step performs a non-blocking send and every step's continuations
// run on the chain executor.
type AsyncChain struct {
	interceptors []AsyncInterceptor
	transport    transport.Transport
	executor     transport.Executor
	index        int
}

// NewAsyncChain creates an async chain pass. A nil exec falls back to
// transport.DefaultExecutor.
func NewAsyncChain(t transport.Transport, exec transport.Executor, interceptors ...AsyncInterceptor) AsyncChain {
	if exec == nil {
		exec = transport.DefaultExecutor()
	}
	return AsyncChain{interceptors: interceptors, transport: t, executor: exec}
}

// Executor returns the executor continuations run on.
func (c AsyncChain) Executor() transport.Executor { return c.executor }

// Index returns the cursor position.
func (c AsyncChain) Index() int { return c.index }

// Len returns the number of interceptors in the pipeline.
func (c AsyncChain) Len() int { return len(c.interceptors) }

// FromIndex returns a copy of the chain positioned at n, clamped to the valid
// range.
func (c AsyncChain) FromIndex(n int) AsyncChain {
	if n < 0 {
		n = 0
	}
	if n > len(c.interceptors) {
		n = len(c.interceptors)
	}
	c.index = n
	return c
}

// Proceed dispatches the stage at the cursor with an advanced copy of the
// chain; when interceptors are exhausted it starts the non-blocking terminal
// send. The returned future resolves with the pass result.
func (c AsyncChain) Proceed(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy) *transport.Future {
	if req == nil {
		return transport.CompletedFuture(c.executor, nil, transport.NewValidationError("request cannot be nil", "request"))
	}
	if c.transport == nil {
		return transport.CompletedFuture(c.executor, nil, transport.NewValidationError("chain has no transport", "transport"))
	}
	if c.index < len(c.interceptors) {
		next := c
		next.index++
		return c.interceptors[c.index].InterceptAsync(ctx, req, decode, next)
	}
	return c.transport.SendAsync(ctx, req, decode, c.executor)
}
