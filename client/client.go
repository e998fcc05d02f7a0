// Package client assembles the request pipeline into a ready-to-use service
// client: transport, trace propagation, logging, rate limiting, retry, and
// bearer auth in the order that keeps one-shot stages out of retried passes.
package client

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/cirrusml/cirrus-go/pipeline"
	"github.com/cirrusml/cirrus-go/transport"
)

// Client executes requests through the configured interceptor pipeline,
// synchronously or asynchronously. A Client is immutable and safe for
// concurrent use; each call builds a fresh chain pass over the shared
// interceptor list and transport.
type Client struct {
	transport         transport.Transport
	interceptors      []pipeline.Interceptor
	asyncInterceptors []pipeline.AsyncInterceptor
	executor          transport.Executor
	defaultHeaders    map[string]string
	timeout           time.Duration
}

// Execute runs one request through the pipeline and blocks until it
// completes, including any retry backoff.
func (c *Client) Execute(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy) (*transport.Response, error) {
	req, err := c.prepare(req)
	if err != nil {
		return nil, err
	}
	chain := pipeline.NewChain(c.transport, c.interceptors...)
	return chain.Proceed(ctx, req, decode)
}

// ExecuteAsync runs one request through the pipeline without blocking. The
// returned future resolves on the client's executor; cancelling it prevents
// not-yet-scheduled chain steps (including pending retries) from running.
func (c *Client) ExecuteAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy) *transport.Future {
	req, err := c.prepare(req)
	if err != nil {
		return transport.CompletedFuture(c.executor, nil, err)
	}
	chain := pipeline.NewAsyncChain(c.transport, c.executor, c.asyncInterceptors...)
	return chain.Proceed(ctx, req, decode)
}

// Get performs a GET request decoded as raw bytes.
func (c *Client) Get(ctx context.Context, url string) (*transport.Response, error) {
	req, err := transport.NewRequest(nethttp.MethodGet, url).Build()
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, transport.DecodeBytes())
}

// Post performs a POST request with a JSON body, decoded as raw bytes.
func (c *Client) Post(ctx context.Context, url string, body any) (*transport.Response, error) {
	req, err := transport.NewRequest(nethttp.MethodPost, url).JSONBody(body).Build()
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, transport.DecodeBytes())
}

// Put performs a PUT request with a JSON body, decoded as raw bytes.
func (c *Client) Put(ctx context.Context, url string, body any) (*transport.Response, error) {
	req, err := transport.NewRequest(nethttp.MethodPut, url).JSONBody(body).Build()
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, transport.DecodeBytes())
}

// Patch performs a PATCH request with a JSON body, decoded as raw bytes.
func (c *Client) Patch(ctx context.Context, url string, body any) (*transport.Response, error) {
	req, err := transport.NewRequest(nethttp.MethodPatch, url).JSONBody(body).Build()
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, transport.DecodeBytes())
}

// Delete performs a DELETE request decoded as raw bytes.
func (c *Client) Delete(ctx context.Context, url string) (*transport.Response, error) {
	req, err := transport.NewRequest(nethttp.MethodDelete, url).Build()
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, transport.DecodeBytes())
}

// prepare applies client defaults the request does not override.
func (c *Client) prepare(req *transport.Request) (*transport.Request, error) {
	if req == nil {
		return nil, transport.NewValidationError("request cannot be nil", "request")
	}
	for key, value := range c.defaultHeaders {
		if req.HeaderValue(key) == "" {
			req = req.WithHeader(key, value)
		}
	}
	if req.Timeout() == 0 && c.timeout > 0 {
		req = req.WithTimeout(c.timeout)
	}
	return req, nil
}
