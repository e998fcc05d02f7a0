package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/cirrusml/cirrus-go/transport"
)

const tracerName = "github.com/cirrusml/cirrus-go/pipeline"

// SpanInterceptor records an OpenTelemetry client span per chain pass.
// Installed after the retry interceptor it yields one span per attempt;
// before it, one span per logical request.
type SpanInterceptor struct {
	tracer oteltrace.Tracer
}

var (
	_ Interceptor      = (*SpanInterceptor)(nil)
	_ AsyncInterceptor = (*SpanInterceptor)(nil)
)

// NewSpanInterceptor creates a span-recording stage. A nil provider falls
// back to the globally registered one.
func NewSpanInterceptor(provider oteltrace.TracerProvider) *SpanInterceptor {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &SpanInterceptor{tracer: provider.Tracer(tracerName)}
}

// Intercept wraps the remainder of the pass in a client span.
func (si *SpanInterceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error) {
	ctx, span := si.start(ctx, req)
	resp, err := chain.Proceed(ctx, req, decode)
	si.finish(span, resp, err)
	return resp, err
}

// InterceptAsync wraps the remainder of the pass in a client span ended on
// completion.
func (si *SpanInterceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain AsyncChain) *transport.Future {
	ctx, span := si.start(ctx, req)
	fut := chain.Proceed(ctx, req, decode)
	fut.OnComplete(func(resp *transport.Response, err error) {
		si.finish(span, resp, err)
	})
	return fut
}

func (si *SpanInterceptor) start(ctx context.Context, req *transport.Request) (context.Context, oteltrace.Span) {
	return si.tracer.Start(ctx, "HTTP "+req.Method(),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", req.Method()),
			attribute.String("url.full", req.URL()),
		),
	)
}

func (si *SpanInterceptor) finish(span oteltrace.Span, resp *transport.Response, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if svcErr, ok := transport.AsServiceError(err); ok {
			span.SetAttributes(attribute.Int("http.response.status_code", svcErr.StatusCode))
		}
		return
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
}
