package transport

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReturnsDecodedResponse(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("X-Served-By", "test")
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	resp, err := tr.Send(context.Background(), req, DecodeString())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, resp.Body.Text())
	assert.Equal(t, "test", resp.Header.Get("X-Served-By"))
	assert.Equal(t, int64(1), resp.Stats.CallCount)
	assert.Greater(t, resp.Stats.ElapsedTime, time.Duration(0))
}

func TestSendDeliversHeadersAndBodyUnchanged(t *testing.T) {
	var gotHeader nethttp.Header
	var gotBody []byte
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	req, err := NewRequest("POST", server.URL).
		Header("X-Api-Version", "2026-08-01").
		Header("Accept", "application/json").
		StringBody("payload").
		Build()
	require.NoError(t, err)

	tr := NewHTTPTransport(0)
	_, err = tr.Send(context.Background(), req, DecodeBytes())
	require.NoError(t, err)

	assert.Equal(t, "2026-08-01", gotHeader.Get("X-Api-Version"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, "payload", string(gotBody))
}

func TestSendClassifiesNonSuccessAsServiceError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status_code":503,"trace":"t1","errors":[{"code":"service_unavailable","message":"down"}]}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	resp, err := tr.Send(context.Background(), req, DecodeBytes())
	assert.Nil(t, resp)
	require.Error(t, err)

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 503, svcErr.StatusCode)
	assert.Equal(t, "service_unavailable", svcErr.Code())
	assert.Equal(t, "t1", svcErr.Trace)
}

func TestSendClassifiesUnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusBadGateway)
		_, _ = w.Write([]byte("upstream dead"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), req, DecodeBytes())
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 502, svcErr.StatusCode)
	assert.Empty(t, svcErr.Code())
	assert.Equal(t, []byte("upstream dead"), svcErr.RawBody)
}

func TestSendClassifiesConnectionFailure(t *testing.T) {
	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", "http://127.0.0.1:1").Build()
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), req, DecodeBytes())
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TransportFailure))
}

func TestSendEnforcesPerRequestTimeout(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Timeout(20 * time.Millisecond).Build()
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), req, DecodeBytes())
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TimeoutFailure))
}

func TestSendClassifiesContextCancellation(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	_, err = tr.Send(ctx, req, DecodeBytes())
	require.Error(t, err)
	assert.True(t, IsErrorType(err, CancelledFailure))
}

func TestSendRejectsNilRequest(t *testing.T) {
	tr := NewHTTPTransport(0)
	_, err := tr.Send(context.Background(), nil, DecodeBytes())
	assert.True(t, IsErrorType(err, ValidationFailure))
}

func TestSendAsyncCompletesFuture(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("async"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	fut := tr.SendAsync(context.Background(), req, DecodeString(), nil)
	resp, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "async", resp.Body.Text())
}

func TestSendAsyncCancelBeforeStartSkipsSend(t *testing.T) {
	sent := make(chan struct{}, 1)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sent <- struct{}{}
	}))
	defer server.Close()

	// An executor that holds the task until released, so cancellation always
	// lands before the send starts.
	release := make(chan struct{})
	exec := &gatedExecutor{release: release}

	tr := NewHTTPTransport(0)
	req, err := NewRequest("GET", server.URL).Build()
	require.NoError(t, err)

	fut := tr.SendAsync(context.Background(), req, DecodeBytes(), exec)
	require.True(t, fut.Cancel())
	close(release)

	select {
	case <-sent:
		t.Fatal("send should have been skipped after cancellation")
	case <-time.After(100 * time.Millisecond):
	}
}

type gatedExecutor struct {
	release chan struct{}
}

func (g *gatedExecutor) Execute(fn func()) {
	go func() {
		<-g.release
		fn()
	}()
}

func (g *gatedExecutor) Schedule(delay time.Duration, fn func()) func() bool {
	t := time.AfterFunc(delay, fn)
	return t.Stop
}
