package transport

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		typ  ErrorType
	}{
		{"transport", NewTransportError("send failed", cause), TransportFailure},
		{"timeout", NewTimeoutError("deadline", 5*time.Second, nil), TimeoutFailure},
		{"cancelled", NewCancelledError("aborted", nil), CancelledFailure},
		{"validation", NewValidationError("missing url", "url"), ValidationFailure},
		{"service", NewServiceError(503, nil), ServiceFailure},
		{"retry exhausted", NewRetryExhaustedError(3, cause), RetryExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsErrorType(tt.err, tt.typ))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestIsErrorTypeOnForeignError(t *testing.T) {
	assert.False(t, IsErrorType(errors.New("plain"), TransportFailure))
	assert.False(t, IsErrorType(nil, TransportFailure))
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewTransportError("send failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestNewServiceErrorParsesEnvelope(t *testing.T) {
	body := []byte(`{
		"status_code": 401,
		"trace": "abc-123",
		"errors": [{"code": "authentication_token_expired", "message": "expired", "more_info": "https://example.com/docs"}]
	}`)
	err := NewServiceError(401, body)

	assert.Equal(t, 401, err.StatusCode)
	assert.Equal(t, "abc-123", err.Trace)
	require.Len(t, err.Details, 1)
	assert.Equal(t, "authentication_token_expired", err.Code())
	assert.Equal(t, body, err.RawBody)
	assert.Contains(t, err.Error(), "authentication_token_expired")
}

func TestNewServiceErrorKeepsRawBodyOnParseFailure(t *testing.T) {
	body := []byte("<html>gateway timeout</html>")
	err := NewServiceError(504, body)

	assert.Equal(t, 504, err.StatusCode)
	assert.Empty(t, err.Code())
	assert.Empty(t, err.Details)
	// The undecodable body stays observable instead of being dropped
	assert.Equal(t, body, err.RawBody)
}

func TestRetryExhaustedErrorWrapsCause(t *testing.T) {
	cause := NewServiceError(503, nil)
	err := NewRetryExhaustedError(4, cause)

	assert.Equal(t, 4, err.Attempts)
	assert.ErrorIs(t, err, error(cause))

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 503, svcErr.StatusCode)
}

func TestIsServiceStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewServiceError(429, nil))
	assert.True(t, IsServiceStatus(err, 429))
	assert.False(t, IsServiceStatus(err, 500))
	assert.False(t, IsServiceStatus(errors.New("other"), 429))
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(204))
	assert.False(t, IsSuccessStatus(199))
	assert.False(t, IsSuccessStatus(301))
	assert.False(t, IsSuccessStatus(500))
}
