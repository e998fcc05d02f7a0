package pipeline

import (
	"context"

	"github.com/cirrusml/cirrus-go/trace"
	"github.com/cirrusml/cirrus-go/transport"
)

// TraceInterceptor propagates correlation identifiers onto outbound requests:
// X-Request-ID always, a W3C traceparent when enabled. Values already present
// on the request win over context values.
type TraceInterceptor struct {
	w3c bool
}

var (
	_ Interceptor      = (*TraceInterceptor)(nil)
	_ AsyncInterceptor = (*TraceInterceptor)(nil)
)

// NewTraceInterceptor creates a trace propagation stage. When w3c is true a
// traceparent header is attached alongside the request ID.
func NewTraceInterceptor(w3c bool) *TraceInterceptor {
	return &TraceInterceptor{w3c: w3c}
}

// Intercept attaches correlation headers and forwards the request.
func (ti *TraceInterceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error) {
	return chain.Proceed(ctx, ti.apply(ctx, req), decode)
}

// InterceptAsync attaches correlation headers and forwards the request.
func (ti *TraceInterceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain AsyncChain) *transport.Future {
	return chain.Proceed(ctx, ti.apply(ctx, req), decode)
}

func (ti *TraceInterceptor) apply(ctx context.Context, req *transport.Request) *transport.Request {
	if req.HeaderValue(trace.HeaderRequestID) == "" {
		req = req.WithHeader(trace.HeaderRequestID, trace.EnsureRequestID(ctx))
	}
	if ti.w3c && req.HeaderValue(trace.HeaderTraceParent) == "" {
		tp, ok := trace.TraceParentFromContext(ctx)
		if !ok {
			tp = trace.GenerateTraceParent()
		}
		req = req.WithHeader(trace.HeaderTraceParent, tp)
	}
	return req
}
