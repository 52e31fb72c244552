/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a user-facing message and an HTTP status. Every failure a cache
store records in its error slot has this shape, whether it came from the service, from the
transport, or from a local rejection.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"livesync/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition or the service's own codes).
	Code int `json:"code"`

	// Message is the error description, verbatim from the service for domain errors.
	Message string `json:"error"`

	// Status is the HTTP status the error arrived with, or the local equivalent.
	Status int `json:"-"`
}

// Payload is the wire shape of a domain error reported by the service.
type Payload struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a new *CustomError from a predefined local code.
// The optional details are printf arguments for the message template. Unknown codes
// fall back to ErrInternal.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		internalErr := errorMap[ErrInternal]
		return &internalErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// Internal normalizes any transport, decode or unexpected failure into the generic
// internal-error shape: fixed code, stringified cause.
func Internal(cause error) *CustomError {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	return &CustomError{
		Code:    ErrInternal,
		Message: msg,
		Status:  http.StatusInternalServerError,
	}
}

// FromPayload builds the error for a well-formed failure response from the service.
func FromPayload(p Payload, status int) *CustomError {
	return &CustomError{
		Code:    p.Code,
		Message: p.Error,
		Status:  status,
	}
}

// Is reports whether err carries the given code.
func Is(err *CustomError, code int) bool {
	return err != nil && err.Code == code
}
