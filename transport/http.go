package transport

import (
	"context"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"sync/atomic"
	"time"
)

// DefaultTimeout is the connection-level timeout applied when the caller
// configures none.
const DefaultTimeout = 30 * time.Second

// Transport performs the terminal network send of a chain pass. It must be
// safe for concurrent use; the underlying connection pool is shared across
// all chain passes.
type Transport interface {
	// Send performs a blocking network send.
	Send(ctx context.Context, req *Request, decode DecodeStrategy) (*Response, error)
	// SendAsync performs a non-blocking send; the returned future completes
	// on exec (DefaultExecutor when nil).
	SendAsync(ctx context.Context, req *Request, decode DecodeStrategy, exec Executor) *Future
}

// HTTPTransport is the net/http-backed Transport.
type HTTPTransport struct {
	client    *nethttp.Client
	callCount int64
}

// NewHTTPTransport creates a transport with its own pooled HTTP client.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{client: &nethttp.Client{Timeout: timeout}}
}

// NewHTTPTransportWithClient wraps an existing HTTP client, e.g. one with a
// custom RoundTripper or TLS configuration.
func NewHTTPTransportWithClient(client *nethttp.Client) *HTTPTransport {
	if client == nil {
		client = &nethttp.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client}
}

// Send performs exactly one wire call. Non-2xx statuses are converted into a
// ServiceError carrying the parsed error payload (raw body preserved when the
// payload does not decode). Timeouts and connection failures are classified
// per the pipeline's error taxonomy.
func (t *HTTPTransport) Send(ctx context.Context, req *Request, decode DecodeStrategy) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}
	if decode == nil {
		decode = DecodeBytes()
	}

	if req.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout())
		defer cancel()
	}

	start := time.Now()
	callCount := atomic.AddInt64(&t.callCount, 1)

	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.classifySendError(ctx, req, err)
	}

	if !IsSuccessStatus(httpResp.StatusCode) {
		defer httpResp.Body.Close()
		body, readErr := io.ReadAll(httpResp.Body)
		if readErr != nil {
			return nil, NewTransportError("failed to read error response body", readErr)
		}
		return nil, NewServiceError(httpResp.StatusCode, body)
	}

	body, err := decode.Materialize(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}, nil
}

// SendAsync runs Send off the calling goroutine and resolves the returned
// future with its result. Cancelling the future before the send starts
// prevents the wire call entirely.
func (t *HTTPTransport) SendAsync(ctx context.Context, req *Request, decode DecodeStrategy, exec Executor) *Future {
	if exec == nil {
		exec = DefaultExecutor()
	}
	fut := NewFuture(exec)
	exec.Execute(func() {
		if fut.Cancelled() {
			return
		}
		resp, err := t.Send(ctx, req, decode)
		fut.Complete(resp, err)
	})
	return fut
}

func (t *HTTPTransport) buildRequest(ctx context.Context, req *Request) (*nethttp.Request, error) {
	body, err := req.Body()
	if err != nil {
		return nil, NewTransportError("failed to produce request body", err)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method(), req.URL(), body)
	if err != nil {
		return nil, NewTransportError("failed to create HTTP request", err)
	}

	for key, values := range req.Header() {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	return httpReq, nil
}

func (t *HTTPTransport) classifySendError(ctx context.Context, req *Request, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return NewCancelledError("request cancelled", err)
	}
	if isTimeout(err) {
		return NewTimeoutError("request timed out", req.Timeout(), err)
	}
	return NewTransportError("request execution failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
