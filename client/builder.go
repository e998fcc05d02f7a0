package client

import (
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/cirrusml/cirrus-go/auth"
	"github.com/cirrusml/cirrus-go/logger"
	"github.com/cirrusml/cirrus-go/pipeline"
	"github.com/cirrusml/cirrus-go/retry"
	"github.com/cirrusml/cirrus-go/transport"
)

// Builder provides a fluent interface for configuring a Client.
//
// The assembled stage order is: user interceptors, trace, logging, rate
// limit, retry, span, bearer. Stages before retry run once per logical
// request; span and bearer run once per attempt, so retried 401s pick up a
// refreshed token and every wire call gets its own span.
type Builder struct {
	transport     transport.Transport
	log           logger.Logger
	authenticator auth.Authenticator
	retryPolicy   *retry.Policy
	user          []pipeline.DualInterceptor
	rateLimit     float64
	traceW3C      bool
	tracing       bool
	traceProvider oteltrace.TracerProvider
	executor      transport.Executor
	headers       map[string]string
	timeout       time.Duration
}

// NewBuilder creates a client builder logging through log.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		log:     log,
		headers: make(map[string]string),
	}
}

// WithTransport sets the terminal transport. Defaults to an HTTPTransport
// with the builder's timeout.
func (b *Builder) WithTransport(t transport.Transport) *Builder {
	b.transport = t
	return b
}

// WithTimeout sets the default per-request timeout.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithAuthenticator installs bearer auth using the given authenticator.
func (b *Builder) WithAuthenticator(a auth.Authenticator) *Builder {
	b.authenticator = a
	return b
}

// WithRetryPolicy installs the retry stage with the given policy.
func (b *Builder) WithRetryPolicy(p *retry.Policy) *Builder {
	b.retryPolicy = p
	return b
}

// WithInterceptor appends a user interceptor ahead of the built-in stages.
func (b *Builder) WithInterceptor(i pipeline.DualInterceptor) *Builder {
	b.user = append(b.user, i)
	return b
}

// WithRateLimit throttles outbound calls to requestsPerSecond (0 disables).
func (b *Builder) WithRateLimit(requestsPerSecond float64) *Builder {
	b.rateLimit = requestsPerSecond
	return b
}

// WithW3CTrace also propagates a W3C traceparent header.
func (b *Builder) WithW3CTrace() *Builder {
	b.traceW3C = true
	return b
}

// WithTracing records an OpenTelemetry client span per attempt. A nil
// provider uses the globally registered one.
func (b *Builder) WithTracing(provider oteltrace.TracerProvider) *Builder {
	b.tracing = true
	b.traceProvider = provider
	return b
}

// WithExecutor sets the executor async passes run on.
func (b *Builder) WithExecutor(exec transport.Executor) *Builder {
	b.executor = exec
	return b
}

// WithDefaultHeader adds a header sent with every request unless the request
// sets it itself.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.headers[key] = value
	return b
}

// Build validates the configuration and assembles the client.
func (b *Builder) Build() (*Client, error) {
	if b.log == nil {
		return nil, transport.NewValidationError("logger is required", "logger")
	}

	t := b.transport
	if t == nil {
		t = transport.NewHTTPTransport(b.timeout)
	}

	stages := make([]pipeline.DualInterceptor, 0, len(b.user)+6)
	stages = append(stages, b.user...)
	stages = append(stages, pipeline.NewTraceInterceptor(b.traceW3C))
	stages = append(stages, pipeline.NewLoggingInterceptor(b.log))
	if b.rateLimit > 0 {
		stages = append(stages, pipeline.NewRateLimitInterceptor(b.rateLimit))
	}
	if b.retryPolicy != nil {
		retryStage, err := retry.NewInterceptor(b.retryPolicy, b.log)
		if err != nil {
			return nil, err
		}
		stages = append(stages, retryStage)
	}
	if b.tracing {
		stages = append(stages, pipeline.NewSpanInterceptor(b.traceProvider))
	}
	if b.authenticator != nil {
		bearer, err := auth.NewBearerInterceptor(b.authenticator)
		if err != nil {
			return nil, err
		}
		stages = append(stages, bearer)
	}

	sync := make([]pipeline.Interceptor, len(stages))
	async := make([]pipeline.AsyncInterceptor, len(stages))
	for i, s := range stages {
		sync[i] = s
		async[i] = s
	}

	exec := b.executor
	if exec == nil {
		exec = transport.DefaultExecutor()
	}

	headers := make(map[string]string, len(b.headers))
	for k, v := range b.headers {
		headers[k] = v
	}

	return &Client{
		transport:         t,
		interceptors:      sync,
		asyncInterceptors: async,
		executor:          exec,
		defaultHeaders:    headers,
		timeout:           b.timeout,
	}, nil
}
