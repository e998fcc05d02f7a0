// Package pipeline implements the interceptor chain shared by the SDK's
// synchronous and asynchronous request paths. A chain is an immutable ordered
// interceptor list terminating in a transport send; the cursor travels by
// value, so re-entering the remainder of a pipeline never disturbs another
// pass.
package pipeline

import (
	"context"

	"github.com/cirrusml/cirrus-go/transport"
)

// Interceptor is a synchronous pipeline stage. It may inspect or transform
// the request, short-circuit with a response or error, or forward to the next
// stage by calling chain.Proceed. Calling Proceed more than once re-runs the
// remainder of the pipeline, which is how retry re-enters downstream stages
// without re-running upstream ones.
type Interceptor interface {
	Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error)

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error) {
	return f(ctx, req, decode, chain)
}

// Chain is one pass through the pipeline: an interceptor sequence, the
// terminal transport, and a cursor. Chain values are cheap copies; Proceed
// hands each interceptor a copy positioned after itself, and never mutates
// shared state.
type Chain struct {
	interceptors []Interceptor
	transport    transport.Transport
	index        int
}

// NewChain creates a chain pass over the given interceptors ending in t.
func NewChain(t transport.Transport, interceptors ...Interceptor) Chain {
	return Chain{interceptors: interceptors, transport: t}
}

// Index returns the cursor position: the next stage Proceed will dispatch.
func (c Chain) Index() int { return c.index }

// Len returns the number of interceptors in the pipeline.
func (c Chain) Len() int { return len(c.interceptors) }

// FromIndex returns a copy of the chain positioned at n, clamped to the valid
// range. A chain positioned at Len() proceeds straight to the transport.
func (c Chain) FromIndex(n int) Chain {
	if n < 0 {
		n = 0
	}
	if n > len(c.interceptors) {
		n = len(c.interceptors)
	}
	c.index = n
	return c
}

// Proceed dispatches the stage at the cursor, handing it a chain advanced
// past itself; once interceptors are exhausted it performs the blocking
// terminal send. Failures propagate to the caller untranslated. Exactly one
// wire send occurs per pass that reaches the transport.
func (c Chain) Proceed(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy) (*transport.Response, error) {
	if req == nil {
		return nil, transport.NewValidationError("request cannot be nil", "request")
	}
	if c.transport == nil {
		return nil, transport.NewValidationError("chain has no transport", "transport")
	}
	if c.index < len(c.interceptors) {
		next := c
		next.index++
		return c.interceptors[c.index].Intercept(ctx, req, decode, next)
	}
	return c.transport.Send(ctx, req, decode)
}
