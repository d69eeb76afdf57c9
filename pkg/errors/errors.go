// Package errors defines the typed error taxonomy used at every layer of
// the gateway, and the mapping from error kind to HTTP status code.
package errors

import "fmt"

// Kind tags the category of an Error for HTTP-status and JSON-RPC-code mapping.
type Kind string

// Error kinds, per the gateway's error taxonomy.
const (
	ErrUnauthorized     Kind = "unauthorized"
	ErrForbidden        Kind = "forbidden"
	ErrNotFound         Kind = "not_found"
	ErrBadRequest       Kind = "bad_request"
	ErrConflict         Kind = "conflict"
	ErrValidation       Kind = "validation"
	ErrSecurityViolation Kind = "security_violation"
	ErrInternal         Kind = "internal"
	ErrTransport        Kind = "transport"
	ErrProtocol         Kind = "protocol_error"
	ErrProcess          Kind = "process_error"
	ErrConfig           Kind = "config"
)

// Error is the gateway's typed error: a Kind, a human message, and an
// optional wrapped cause.
type Error struct {
	Type    Kind
	Message string
	Cause   error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Type: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Kind-specific constructors, mirroring the taxonomy in one place.

func NewUnauthorizedError(message string, cause error) *Error {
	return NewError(ErrUnauthorized, message, cause)
}

func NewForbiddenError(message string, cause error) *Error {
	return NewError(ErrForbidden, message, cause)
}

func NewNotFoundError(message string, cause error) *Error {
	return NewError(ErrNotFound, message, cause)
}

func NewBadRequestError(message string, cause error) *Error {
	return NewError(ErrBadRequest, message, cause)
}

func NewConflictError(message string, cause error) *Error {
	return NewError(ErrConflict, message, cause)
}

func NewValidationError(message string, cause error) *Error {
	return NewError(ErrValidation, message, cause)
}

func NewSecurityViolationError(message string, cause error) *Error {
	return NewError(ErrSecurityViolation, message, cause)
}

func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

func NewTransportError(message string, cause error) *Error {
	return NewError(ErrTransport, message, cause)
}

func NewProtocolError(message string, cause error) *Error {
	return NewError(ErrProtocol, message, cause)
}

func NewProcessError(message string, cause error) *Error {
	return NewError(ErrProcess, message, cause)
}

func NewConfigError(message string, cause error) *Error {
	return NewError(ErrConfig, message, cause)
}

func isKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Type == kind
}

func IsUnauthorized(err error) bool      { return isKind(err, ErrUnauthorized) }
func IsForbidden(err error) bool         { return isKind(err, ErrForbidden) }
func IsNotFound(err error) bool          { return isKind(err, ErrNotFound) }
func IsBadRequest(err error) bool        { return isKind(err, ErrBadRequest) }
func IsConflict(err error) bool          { return isKind(err, ErrConflict) }
func IsValidation(err error) bool        { return isKind(err, ErrValidation) }
func IsSecurityViolation(err error) bool { return isKind(err, ErrSecurityViolation) }
func IsInternal(err error) bool          { return isKind(err, ErrInternal) }
func IsTransport(err error) bool         { return isKind(err, ErrTransport) }
func IsProtocol(err error) bool          { return isKind(err, ErrProtocol) }
func IsProcess(err error) bool           { return isKind(err, ErrProcess) }
func IsConfig(err error) bool            { return isKind(err, ErrConfig) }
