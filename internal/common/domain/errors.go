package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so transport layers can map it to a status code.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindValidation      ErrorKind = "validation"
	KindConflict        ErrorKind = "conflict"
	KindForbidden       ErrorKind = "forbidden"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindInvalidState    ErrorKind = "invalid_state"
	KindExternalFailure ErrorKind = "external_failure"
)

// DomainError is an error raised by business rules.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: "validation_error", Message: message}
}

// NewValidationErrorWithCode reports malformed input tagged with a machine readable reason.
func NewValidationErrorWithCode(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewConflictError reports a uniqueness or concurrency conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: "conflict", Message: message}
}

// NewForbiddenError reports an authorization failure.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Code: "forbidden", Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Code: "unauthorized", Message: message}
}

// NewInvalidStateError reports a state transition that is not allowed.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Kind:    KindInvalidState,
		Code:    "invalid_state",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewExternalFailureError reports a failure of a third-party system.
func NewExternalFailureError(message string) *DomainError {
	return &DomainError{Kind: KindExternalFailure, Code: "external_failure", Message: message}
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
