package auth

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cirrusml/cirrus-go/logger"
	"github.com/cirrusml/cirrus-go/transport"
)

// DefaultGrantType is the URN sent as grant_type when exchanging an API key
// for a bearer token.
const DefaultGrantType = "urn:cirrus:params:oauth:grant-type:apikey"

// DefaultRequestTimeout bounds a single token exchange call.
const DefaultRequestTimeout = 30 * time.Second

// Authenticator supplies the current bearer token for outbound requests.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
}

// tokenResponse is the identity endpoint's 2xx payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Expiration   int64  `json:"expiration"`
	Scope        string `json:"scope"`
}

// IAMAuthenticator exchanges an API key for a bearer token at the identity
// endpoint and caches the result until expiry. The cached credential lives
// behind an atomically-swapped pointer; in-process refreshes are collapsed
// through singleflight, and cross-process races simply issue redundant,
// idempotent token requests.
type IAMAuthenticator struct {
	tokenURL     string
	apiKey       string
	grantType    string
	refreshAhead time.Duration
	client       *nethttp.Client
	log          logger.Logger
	now          func() time.Time

	cred  atomic.Pointer[Credential]
	group singleflight.Group
}

var _ Authenticator = (*IAMAuthenticator)(nil)

// Option configures an IAMAuthenticator.
type Option func(*IAMAuthenticator)

// WithHTTPClient sets the HTTP client used for token exchange calls.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(a *IAMAuthenticator) { a.client = client }
}

// WithGrantType overrides the grant_type URN.
func WithGrantType(grantType string) Option {
	return func(a *IAMAuthenticator) { a.grantType = grantType }
}

// WithRefreshAhead refreshes the token the given duration before its actual
// expiry. Zero (the default) refreshes strictly at expiry.
func WithRefreshAhead(window time.Duration) Option {
	return func(a *IAMAuthenticator) { a.refreshAhead = window }
}

// WithLogger enables debug logging of token cache activity.
func WithLogger(log logger.Logger) Option {
	return func(a *IAMAuthenticator) { a.log = log }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(a *IAMAuthenticator) { a.now = now }
}

// NewIAMAuthenticator creates an authenticator for the given identity
// endpoint and API key.
func NewIAMAuthenticator(tokenURL, apiKey string, opts ...Option) (*IAMAuthenticator, error) {
	if tokenURL == "" {
		return nil, transport.NewValidationError("token URL is required", "token_url")
	}
	if apiKey == "" {
		return nil, transport.NewValidationError("API key is required", "api_key")
	}
	a := &IAMAuthenticator{
		tokenURL:  tokenURL,
		apiKey:    apiKey,
		grantType: DefaultGrantType,
		client:    &nethttp.Client{Timeout: DefaultRequestTimeout},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Token returns the cached access token, refreshing it first when missing or
// expired. A valid cached credential costs no network call.
func (a *IAMAuthenticator) Token(ctx context.Context) (string, error) {
	if c := a.cred.Load(); !c.Expired(a.now().Add(a.refreshAhead)) {
		return c.AccessToken, nil
	}

	token, err, _ := a.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we queued
		if c := a.cred.Load(); !c.Expired(a.now().Add(a.refreshAhead)) {
			return c.AccessToken, nil
		}
		cred, err := a.requestToken(ctx)
		if err != nil {
			return "", err
		}
		a.cred.Store(cred)
		if a.log != nil {
			a.log.Debug().
				Str("token_url", a.tokenURL).
				Dur("valid_for", cred.Expiry.Sub(a.now())).
				Msg("bearer token refreshed")
		}
		return cred.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// TokenAsync fetches the token off the calling goroutine. The returned
// future completes on exec with the token or the refresh failure.
func (a *IAMAuthenticator) TokenAsync(ctx context.Context, exec transport.Executor) *TokenFuture {
	if exec == nil {
		exec = transport.DefaultExecutor()
	}
	fut := newTokenFuture()
	exec.Execute(func() {
		fut.complete(a.Token(ctx))
	})
	return fut
}

// Credential returns the currently cached credential, or nil when no token
// has been fetched yet. The returned value must not be mutated.
func (a *IAMAuthenticator) Credential() *Credential {
	return a.cred.Load()
}

func (a *IAMAuthenticator) requestToken(ctx context.Context) (*Credential, error) {
	form := url.Values{}
	form.Set("grant_type", a.grantType)
	form.Set("apikey", a.apiKey)

	httpReq, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transport.NewTransportError("failed to create token request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, transport.NewTransportError("token request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transport.NewTransportError("failed to read token response", err)
	}
	if !transport.IsSuccessStatus(httpResp.StatusCode) {
		return nil, transport.NewServiceError(httpResp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, transport.NewTransportError("failed to decode token response", err)
	}
	if tr.AccessToken == "" {
		return nil, transport.NewTransportError("token response missing access_token", nil)
	}

	expiry := time.Unix(tr.Expiration, 0)
	if tr.Expiration == 0 {
		expiry = a.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return &Credential{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
		Expiry:       expiry,
	}, nil
}

// TokenFuture is the deferred result of an asynchronous token fetch.
type TokenFuture struct {
	done  chan struct{}
	token string
	err   error
}

func newTokenFuture() *TokenFuture {
	return &TokenFuture{done: make(chan struct{})}
}

func (f *TokenFuture) complete(token string, err error) {
	f.token = token
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the fetch completes.
func (f *TokenFuture) Done() <-chan struct{} { return f.done }

// Wait blocks until the fetch completes or ctx is done.
func (f *TokenFuture) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.token, f.err
	case <-ctx.Done():
		return "", transport.NewCancelledError("token wait aborted", ctx.Err())
	}
}
