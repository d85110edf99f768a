// Package domain - errors.go defines the closed error taxonomy.
//
// Every failure leaving the gateway carries exactly one ErrorCode. Foreign
// errors that were never classified are reported as MODEL_ERROR.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable failure category.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeRateLimited  ErrorCode = "RATE_LIMITED"
	CodeModelError   ErrorCode = "MODEL_ERROR"
	CodeTimeout      ErrorCode = "TIMEOUT"
)

// HTTPStatus maps the code to its response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-safe message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// BadRequest reports malformed or unusable input.
func BadRequest(msg string) *Error { return newError(CodeBadRequest, msg, nil) }

// Unauthorized reports a missing server credential.
func Unauthorized(msg string) *Error { return newError(CodeUnauthorized, msg, nil) }

// RateLimited reports an exhausted admission window.
func RateLimited(msg string) *Error { return newError(CodeRateLimited, msg, nil) }

// ModelError reports an upstream or output-shape failure.
func ModelError(msg string, err error) *Error { return newError(CodeModelError, msg, err) }

// Timeout reports an upstream call that lost the deadline race.
func Timeout(msg string, err error) *Error { return newError(CodeTimeout, msg, err) }

// AsError extracts a classified error, wrapping foreign errors as MODEL_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return ModelError(err.Error(), err)
}

// CodeOf returns the taxonomy code of err.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsError(err).Code
}
