package errors

import "net/http"

// Code maps an error's Kind to its fixed HTTP status, per §7's propagation
// policy. Errors that are not *Error map to 500.
func Code(err error) int {
	e, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation, ErrProtocol:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrSecurityViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
