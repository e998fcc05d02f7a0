package pipeline

import (
	"context"

	"github.com/cirrusml/cirrus-go/logger"
	"github.com/cirrusml/cirrus-go/transport"
)

// LoggingInterceptor logs the outbound request and its final outcome.
// Install it before the retry interceptor so a retried request is logged
// once, not once per attempt.
type LoggingInterceptor struct {
	log logger.Logger
}

var (
	_ Interceptor      = (*LoggingInterceptor)(nil)
	_ AsyncInterceptor = (*LoggingInterceptor)(nil)
)

// NewLoggingInterceptor creates a logging stage using the given logger.
func NewLoggingInterceptor(log logger.Logger) *LoggingInterceptor {
	return &LoggingInterceptor{log: log}
}

// Intercept logs the request, forwards it unchanged, and logs the outcome.
func (li *LoggingInterceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain Chain) (*transport.Response, error) {
	li.logRequest(req)
	resp, err := chain.Proceed(ctx, req, decode)
	li.logOutcome(req, resp, err)
	return resp, err
}

// InterceptAsync logs the request, forwards it, and logs on completion.
func (li *LoggingInterceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain AsyncChain) *transport.Future {
	li.logRequest(req)
	fut := chain.Proceed(ctx, req, decode)
	fut.OnComplete(func(resp *transport.Response, err error) {
		li.logOutcome(req, resp, err)
	})
	return fut
}

func (li *LoggingInterceptor) logRequest(req *transport.Request) {
	event := li.log.Info().
		Str("direction", "outbound").
		Str("method", req.Method()).
		Str("url", req.URL())

	if header := req.Header(); len(header) > 0 {
		event = event.Interface("headers", map[string][]string(header))
	}
	event.Msg("service request")
}

func (li *LoggingInterceptor) logOutcome(req *transport.Request, resp *transport.Response, err error) {
	if err != nil {
		li.log.Error().
			Str("method", req.Method()).
			Str("url", req.URL()).
			Err(err).
			Msg("service request failed")
		return
	}
	li.log.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Msg("service response")
}
