package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err:  &Error{Type: ErrValidation, Message: "test message", Cause: errors.New("underlying error")},
			want: "validation: test message: underlying error",
		},
		{
			name: "error without cause",
			err:  &Error{Type: ErrInternal, Message: "test message", Cause: nil},
			want: "internal: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewError(ErrInternal, "test message", cause)
	assert.Equal(t, cause, err.Unwrap())

	errNoCause := NewError(ErrInternal, "test message", nil)
	assert.Nil(t, errNoCause.Unwrap())
}

func TestNewErrorConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name        string
		constructor func(string, error) *Error
		wantType    Kind
		wantCode    int
	}{
		{"Unauthorized", NewUnauthorizedError, ErrUnauthorized, http.StatusUnauthorized},
		{"Forbidden", NewForbiddenError, ErrForbidden, http.StatusForbidden},
		{"NotFound", NewNotFoundError, ErrNotFound, http.StatusNotFound},
		{"BadRequest", NewBadRequestError, ErrBadRequest, http.StatusBadRequest},
		{"Conflict", NewConflictError, ErrConflict, http.StatusConflict},
		{"Validation", NewValidationError, ErrValidation, http.StatusBadRequest},
		{"SecurityViolation", NewSecurityViolationError, ErrSecurityViolation, http.StatusUnprocessableEntity},
		{"Internal", NewInternalError, ErrInternal, http.StatusInternalServerError},
		{"Transport", NewTransportError, ErrTransport, http.StatusInternalServerError},
		{"Protocol", NewProtocolError, ErrProtocol, http.StatusBadRequest},
		{"Process", NewProcessError, ErrProcess, http.StatusInternalServerError},
		{"Config", NewConfigError, ErrConfig, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor("test message", cause)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, "test message", err.Message)
			assert.Equal(t, cause, err.Cause)
			assert.Equal(t, tt.wantCode, Code(err))
		})
	}
}

func TestErrorTypeCheckers(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("x", nil)))
	assert.False(t, IsValidation(NewInternalError("x", nil)))
	assert.False(t, IsValidation(errors.New("plain")))
	assert.False(t, IsInternal(nil))
}

func TestCode_NonErrorDefaultsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Code(errors.New("plain")))
}
