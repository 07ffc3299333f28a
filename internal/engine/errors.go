package engine

import (
	"errors"
	"fmt"
)

// RequestErrorCode categorizes rejected requests.
type RequestErrorCode string

const (
	// ErrCodeMissingAddress indicates the request had no usable address.
	ErrCodeMissingAddress RequestErrorCode = "MISSING_ADDRESS"

	// ErrCodeMissingUser indicates a full report was requested without a user.
	ErrCodeMissingUser RequestErrorCode = "MISSING_USER"

	// ErrCodeIdempotencyConflict indicates an idempotency key was reused for
	// a different address or user.
	ErrCodeIdempotencyConflict RequestErrorCode = "IDEMPOTENCY_CONFLICT"
)

// RequestError is a request the service refuses to answer.
type RequestError struct {
	Code    RequestErrorCode
	Message string

	// IdempotencyKey is set for conflicts.
	IdempotencyKey string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.IdempotencyKey != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.IdempotencyKey)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of a RequestError anywhere in err's chain.
func CodeOf(err error) (RequestErrorCode, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return "", false
}

// IsConflict reports whether err is an idempotency conflict.
func IsConflict(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeIdempotencyConflict
}

func missingAddress() *RequestError {
	return &RequestError{Code: ErrCodeMissingAddress, Message: "address is required"}
}

func missingUser() *RequestError {
	return &RequestError{Code: ErrCodeMissingUser, Message: "userId is required"}
}

func conflict(key, what string) *RequestError {
	return &RequestError{
		Code:           ErrCodeIdempotencyConflict,
		Message:        fmt.Sprintf("idempotency key was already used for a different %s", what),
		IdempotencyKey: key,
	}
}
