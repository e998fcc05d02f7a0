package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ClientError represents the closed failure taxonomy of the pipeline.
// Every failure the chain surfaces carries one of the ErrorType tags so
// retry policies can classify it without reflection.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	TransportFailure  ErrorType = "transport"
	TimeoutFailure    ErrorType = "timeout"
	ServiceFailure    ErrorType = "service"
	CancelledFailure  ErrorType = "cancelled"
	ValidationFailure ErrorType = "validation"
	RetryExhausted    ErrorType = "retry_exhausted"
)

// transportError represents connection-level failures
type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType { return TransportFailure }

func (e *transportError) Unwrap() error { return e.wrapped }

// timeoutError represents deadline-related failures
type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	if e.timeout > 0 {
		return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
	}
	return fmt.Sprintf("timeout error: %s", e.message)
}

func (e *timeoutError) Type() ErrorType { return TimeoutFailure }

func (e *timeoutError) Unwrap() error { return e.wrapped }

// cancelledError represents caller-initiated cancellation
type cancelledError struct {
	message string
	wrapped error
}

func (e *cancelledError) Error() string {
	return fmt.Sprintf("cancelled: %s", e.message)
}

func (e *cancelledError) Type() ErrorType { return CancelledFailure }

func (e *cancelledError) Unwrap() error { return e.wrapped }

// validationError represents construction/configuration misuse
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType { return ValidationFailure }

// ServiceErrorDetail is one entry of the service error envelope.
type ServiceErrorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// serviceErrorEnvelope is the wire format of a structured service failure.
type serviceErrorEnvelope struct {
	StatusCode int                  `json:"status_code"`
	Trace      string               `json:"trace"`
	Errors     []ServiceErrorDetail `json:"errors"`
}

// ServiceError is a non-2xx response converted into a typed failure. Details
// holds the parsed error payload when the body matched the service error
// envelope; RawBody always carries the undecoded response bytes so parse
// failures stay observable.
type ServiceError struct {
	StatusCode int
	Trace      string
	Details    []ServiceErrorDetail
	RawBody    []byte
}

func (e *ServiceError) Error() string {
	if code := e.Code(); code != "" {
		return fmt.Sprintf("service error: status %d (code: %s)", e.StatusCode, code)
	}
	return fmt.Sprintf("service error: status %d", e.StatusCode)
}

func (e *ServiceError) Type() ErrorType { return ServiceFailure }

// Code returns the first machine-readable error code from the payload, or ""
// when the body did not decode as the error envelope.
func (e *ServiceError) Code() string {
	if len(e.Details) == 0 {
		return ""
	}
	return e.Details[0].Code
}

// RetryExhaustedError is raised after the configured number of attempts all
// failed; Cause is the failure observed on the final attempt.
type RetryExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("max retries reached after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Type() ErrorType { return RetryExhausted }

func (e *RetryExhaustedError) Unwrap() error { return e.Cause }

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration, wrapped error) ClientError {
	return &timeoutError{message: message, timeout: timeout, wrapped: wrapped}
}

// NewCancelledError creates a new cancellation error
func NewCancelledError(message string, wrapped error) ClientError {
	return &cancelledError{message: message, wrapped: wrapped}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

// NewServiceError builds a ServiceError from a non-2xx response body. The
// body is decoded as the service error envelope on a best-effort basis; when
// decoding fails the error carries only the status code and the raw body.
func NewServiceError(statusCode int, body []byte) *ServiceError {
	e := &ServiceError{StatusCode: statusCode, RawBody: body}
	var envelope serviceErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		e.Trace = envelope.Trace
		e.Details = envelope.Errors
	}
	return e
}

// NewRetryExhaustedError creates the terminal failure raised when all retry
// attempts are spent.
func NewRetryExhaustedError(attempts int, cause error) *RetryExhaustedError {
	return &RetryExhaustedError{Attempts: attempts, Cause: cause}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// AsServiceError returns the ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// IsServiceStatus checks if an error is a service error with a specific status code
func IsServiceStatus(err error, statusCode int) bool {
	if svcErr, ok := AsServiceError(err); ok {
		return svcErr.StatusCode == statusCode
	}
	return false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
