package auth

import (
	"context"

	"github.com/cirrusml/cirrus-go/pipeline"
	"github.com/cirrusml/cirrus-go/transport"
)

// HeaderAuthorization is the header the bearer stage attaches.
const HeaderAuthorization = "Authorization"

// BearerInterceptor attaches "Authorization: Bearer <token>" to each pass
// using the authenticator's current token. The stage holds no state of its
// own; its cost is bounded by the authenticator's cache. Install it after
// the retry interceptor so a token-expired retry re-applies a fresh token.
type BearerInterceptor struct {
	auth Authenticator
}

var (
	_ pipeline.Interceptor      = (*BearerInterceptor)(nil)
	_ pipeline.AsyncInterceptor = (*BearerInterceptor)(nil)
)

// NewBearerInterceptor creates a bearer auth stage.
func NewBearerInterceptor(auth Authenticator) (*BearerInterceptor, error) {
	if auth == nil {
		return nil, transport.NewValidationError("authenticator is required", "authenticator")
	}
	return &BearerInterceptor{auth: auth}, nil
}

// Intercept fetches the current token and forwards the request with the
// Authorization header attached.
func (bi *BearerInterceptor) Intercept(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain pipeline.Chain) (*transport.Response, error) {
	token, err := bi.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return chain.Proceed(ctx, req.WithHeader(HeaderAuthorization, "Bearer "+token), decode)
}

// InterceptAsync fetches the token on the chain executor, then forwards the
// request. Cancelling the returned future before the fetch completes skips
// the send.
func (bi *BearerInterceptor) InterceptAsync(ctx context.Context, req *transport.Request, decode transport.DecodeStrategy, chain pipeline.AsyncChain) *transport.Future {
	out := transport.NewFuture(chain.Executor())
	chain.Executor().Execute(func() {
		if out.Cancelled() {
			return
		}
		token, err := bi.auth.Token(ctx)
		if err != nil {
			out.Complete(nil, err)
			return
		}
		if out.Cancelled() {
			return
		}
		chain.Proceed(ctx, req.WithHeader(HeaderAuthorization, "Bearer "+token), decode).Bind(out)
	})
	return out
}
