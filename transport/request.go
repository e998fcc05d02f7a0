package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BodyProvider produces a fresh reader for the request body. It is invoked
// once per chain pass so retried requests replay their payload.
type BodyProvider func() (io.Reader, error)

// Request is an immutable outbound HTTP request. Build one with NewRequest;
// derive modified copies with WithHeader and WithTimeout.
type Request struct {
	method  string
	url     string
	header  http.Header
	body    BodyProvider
	timeout time.Duration
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns the target URL.
func (r *Request) URL() string { return r.url }

// Header returns a copy of the request headers.
func (r *Request) Header() http.Header {
	return r.header.Clone()
}

// HeaderValue returns the first value for the given header key.
func (r *Request) HeaderValue(key string) string {
	return r.header.Get(key)
}

// HasBody reports whether the request carries a body.
func (r *Request) HasBody() bool { return r.body != nil }

// Body returns a fresh reader over the request body, or nil when the request
// has none.
func (r *Request) Body() (io.Reader, error) {
	if r.body == nil {
		return nil, nil
	}
	return r.body()
}

// Timeout returns the per-request timeout (zero means no request-level deadline).
func (r *Request) Timeout() time.Duration { return r.timeout }

// WithHeader returns a copy of the request with the given header set,
// replacing any existing values for the key. The receiver is not modified.
func (r *Request) WithHeader(key, value string) *Request {
	clone := *r
	clone.header = r.header.Clone()
	clone.header.Set(key, value)
	return &clone
}

// WithTimeout returns a copy of the request with the given timeout.
func (r *Request) WithTimeout(timeout time.Duration) *Request {
	clone := *r
	clone.header = r.header.Clone()
	clone.timeout = timeout
	return &clone
}

// RequestBuilder assembles a Request. Zero or more configuration calls are
// followed by Build, which validates mandatory fields.
type RequestBuilder struct {
	method  string
	url     string
	header  http.Header
	body    BodyProvider
	timeout time.Duration
	err     error
}

// NewRequest starts building a request with the given method and URL.
func NewRequest(method, rawURL string) *RequestBuilder {
	return &RequestBuilder{
		method: strings.ToUpper(strings.TrimSpace(method)),
		url:    rawURL,
		header: make(http.Header),
	}
}

// Header adds a header value, preserving existing values for the key.
func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	b.header.Add(key, value)
	return b
}

// SetHeader sets a header value, replacing existing values for the key.
func (b *RequestBuilder) SetHeader(key, value string) *RequestBuilder {
	b.header.Set(key, value)
	return b
}

// Body sets a custom body provider.
func (b *RequestBuilder) Body(provider BodyProvider) *RequestBuilder {
	b.body = provider
	return b
}

// BytesBody sets a byte-slice body.
func (b *RequestBuilder) BytesBody(body []byte) *RequestBuilder {
	b.body = func() (io.Reader, error) { return bytes.NewReader(body), nil }
	return b
}

// StringBody sets a string body.
func (b *RequestBuilder) StringBody(body string) *RequestBuilder {
	b.body = func() (io.Reader, error) { return strings.NewReader(body), nil }
	return b
}

// JSONBody marshals v as the request body and sets the Content-Type header.
func (b *RequestBuilder) JSONBody(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("encode json body: %w", err)
		return b
	}
	b.header.Set("Content-Type", "application/json")
	return b.BytesBody(data)
}

// Timeout sets the per-request timeout enforced by the transport.
func (b *RequestBuilder) Timeout(timeout time.Duration) *RequestBuilder {
	b.timeout = timeout
	return b
}

// Build validates the configuration and returns an immutable Request.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, NewValidationError(b.err.Error(), "body")
	}
	if b.method == "" {
		return nil, NewValidationError("method is required", "method")
	}
	if b.url == "" {
		return nil, NewValidationError("URL is required", "url")
	}
	if _, err := url.Parse(b.url); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid URL: %v", err), "url")
	}
	if b.timeout < 0 {
		return nil, NewValidationError("timeout cannot be negative", "timeout")
	}
	return &Request{
		method:  b.method,
		url:     b.url,
		header:  b.header.Clone(),
		body:    b.body,
		timeout: b.timeout,
	}, nil
}
