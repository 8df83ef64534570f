package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a spamguard error code.
type ErrorCode string

const (
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING" // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrAlreadyQuarantined  ErrorCode = "ALREADY_QUARANTINED"  // 409
	ErrAlreadyLifted       ErrorCode = "ALREADY_LIFTED"       // 409
	ErrConflict            ErrorCode = "CONFLICT"             // 409
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// GuardError represents a structured error with code, status, and details.
type GuardError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAmbiguousAddressing creates a 400 error for when both ID and email are provided.
func NewAmbiguousAddressing() *GuardError {
	return &GuardError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and email; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GuardError {
	return &GuardError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a quarantine record cannot be found.
func NewNotFound(identifier string) *GuardError {
	return &GuardError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("quarantine record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file path.
func NewFileNotFound(path string) *GuardError {
	return &GuardError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyQuarantined creates a 409 error when an identity already has an active quarantine.
func NewAlreadyQuarantined(email, id string) *GuardError {
	return &GuardError{
		Code:    ErrAlreadyQuarantined,
		Status:  409,
		Message: fmt.Sprintf("%q is already quarantined", email),
		Details: map[string]any{"email": email, "id": id},
	}
}

// NewAlreadyLifted creates a 409 error when lifting a record that is no longer active.
func NewAlreadyLifted(id string) *GuardError {
	return &GuardError{
		Code:    ErrAlreadyLifted,
		Status:  409,
		Message: fmt.Sprintf("quarantine %s has already been lifted", id),
		Details: map[string]any{"id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *GuardError {
	return &GuardError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for an operation interrupted by its context.
func NewCancelled(op string) *GuardError {
	return &GuardError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GuardError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GuardError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a GuardError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GuardError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}
