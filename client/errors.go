package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the server's non-conflict failure kinds.
// ErrAuthExpired is special: it is the only error that triggers a local
// side effect (Restore discards the cached credential).
var (
	ErrAuthExpired = errors.New("authentication expired")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
)

// ConflictError carries a machine-readable code for state-machine
// rejections: INVALID_CODE, ALREADY_PENDING, ALREADY_MEMBER, NOT_APPROVED,
// ALREADY_CLOCKED_IN, NOT_CLOCKED_IN, EMAIL_TAKEN.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// IsConflict reports whether err is a conflict with the given code.
func IsConflict(err error, code string) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict) && conflict.Code == code
}

// APIError covers remaining server failures (bad requests, internal
// errors).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// TransportError wraps network-level failures: the service was never
// reached or the response could not be read, so no state can be assumed
// changed or unchanged.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
