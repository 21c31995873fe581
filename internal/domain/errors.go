package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownWorker         = errors.New("unknown worker")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrDelayNotSupported     = errors.New("worker is not bound to the delay exchange")
	ErrDownstreamUnavailable = errors.New("downstream service unavailable")
	ErrCircuitBreakerOpen    = errors.New("circuit breaker open")
	ErrNotifierUnavailable   = errors.New("notifier unavailable")
)

type (
	DomainError struct {
		Code       string
		Message    string
		StatusCode int
		Cause      error
		Details    map[string]any
	}

	MaxRetriesExceededError struct {
		Operation  string
		RetryCount int
		MaxRetries int
		Cause      error
	}
)

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func NewDomainError(code, message string, statusCode int, cause error) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
		Details:    make(map[string]any),
	}
}

func (e *DomainError) WithDetails(key string, value any) *DomainError {
	e.Details[key] = value
	return e
}

func NewUnknownWorkerError(name string) *DomainError {
	return NewDomainError(
		"UNKNOWN_WORKER",
		fmt.Sprintf("worker %q is not registered", name),
		http.StatusNotFound,
		ErrUnknownWorker,
	).WithDetails("worker", name)
}

func NewInvalidPayloadError(worker string, cause error) *DomainError {
	return NewDomainError(
		"INVALID_PAYLOAD",
		fmt.Sprintf("invalid payload for worker %s", worker),
		http.StatusBadRequest,
		errors.Join(ErrInvalidPayload, cause),
	).WithDetails("worker", worker)
}

func NewDelayNotSupportedError(worker string) *DomainError {
	return NewDomainError(
		"DELAY_NOT_SUPPORTED",
		fmt.Sprintf("worker %s does not accept delayed jobs", worker),
		http.StatusBadRequest,
		ErrDelayNotSupported,
	).WithDetails("worker", worker)
}

func NewDownstreamError(service string, statusCode int, cause error) *DomainError {
	return NewDomainError(
		"DOWNSTREAM_UNAVAILABLE",
		fmt.Sprintf("downstream service %s failed", service),
		statusCode,
		errors.Join(ErrDownstreamUnavailable, cause),
	).WithDetails("service", service).WithDetails("status_code", statusCode)
}

func NewCircuitBreakerOpenError(service string, cause error) *DomainError {
	return NewDomainError(
		"CIRCUIT_BREAKER_OPEN",
		"service temporarily unavailable due to repeated failures",
		http.StatusServiceUnavailable,
		errors.Join(ErrCircuitBreakerOpen, cause),
	).WithDetails("service", service)
}

func (e *MaxRetriesExceededError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("max retries exceeded for %s: %d/%d: %s", e.Operation, e.RetryCount, e.MaxRetries, e.Cause)
	}
	return fmt.Sprintf("max retries exceeded for %s: %d/%d", e.Operation, e.RetryCount, e.MaxRetries)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.Cause
}
