package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// FieldErrors maps request fields to human readable messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// fieldErrorer is implemented by validation results that carry per-field messages.
type fieldErrorer interface {
	FieldErrors() map[string][]string
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     FieldErrors
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body renders the error as a response payload: field errors when present,
// otherwise {"error": message}.
func (e *DomainError) Body() map[string]any {
	if len(e.Fields) > 0 {
		body := make(map[string]any, len(e.Fields))
		for field, messages := range e.Fields {
			body[field] = messages
		}
		return body
	}
	return map[string]any{"error": e.Message}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, fields FieldErrors) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Fields: fields}
}

func NewValidationError(message string, fields FieldErrors) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, fields)
}

// NewFieldError reports a single invalid field.
func NewFieldError(field, message string) error {
	return NewValidationError(message, FieldErrors{field: {message}})
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewAuthenticationFailed reports rejected credentials in the field error format.
func NewAuthenticationFailed(fields FieldErrors) error {
	return NewDomainError("AUTHENTICATION_FAILED", "authentication failed", http.StatusUnauthorized, fields)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewBadRequest(message string) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fe fieldErrorer
	if errors.As(err, &fe) {
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    "validation failed",
			HTTPStatus: http.StatusBadRequest,
			Fields:     FieldErrors(fe.FieldErrors()),
			Err:        err,
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &DomainError{Code: "NOT_FOUND", Message: "resource not found", HTTPStatus: http.StatusNotFound, Err: err}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// StatusCode returns the HTTP status an error maps to.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return ToDomainError(err).HTTPStatus
}
