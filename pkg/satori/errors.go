package satori

import (
	"errors"
	"fmt"
)

// apiKind is the closed set of ApiError kinds from spec.md §7.
type apiKind int

const (
	kindBadRequest apiKind = iota
	kindUnauthorized
	kindForbidden
	kindNotFound
	kindMethodNotAllowed
	kindServerError
)

// APIError is the bounded set of request-shaped failures: malformed
// input, missing/bad credentials, unknown method, or a relayed upstream
// 5xx. It always maps to a fixed HTTP status.
type APIError struct {
	kind  apiKind
	cause error
	code  int // only meaningful for kindServerError
}

func (e *APIError) Error() string {
	switch e.kind {
	case kindBadRequest:
		if e.cause != nil {
			return fmt.Sprintf("bad request: %v", e.cause)
		}
		return "bad request"
	case kindUnauthorized:
		return "unauthorized"
	case kindForbidden:
		return "forbidden"
	case kindNotFound:
		return "not found"
	case kindMethodNotAllowed:
		return "method not allowed"
	case kindServerError:
		return fmt.Sprintf("server error (%d)", e.code)
	default:
		return "api error"
	}
}

// HTTPStatus returns the HTTP status this error maps to, per spec.md §7.
func (e *APIError) HTTPStatus() int {
	switch e.kind {
	case kindBadRequest:
		return 400
	case kindUnauthorized:
		return 401
	case kindForbidden:
		return 403
	case kindNotFound:
		return 404
	case kindMethodNotAllowed:
		return 405
	case kindServerError:
		return e.code
	default:
		return 500
	}
}

// NewBadRequest wraps cause as a 400 ApiError::BadRequest.
func NewBadRequest(cause error) *APIError { return &APIError{kind: kindBadRequest, cause: cause} }

// ErrUnauthorized is the 401 ApiError::Unauthorized singleton shape.
func ErrUnauthorized() *APIError { return &APIError{kind: kindUnauthorized} }

// ErrForbidden is the 403 ApiError::Forbidden singleton shape.
func ErrForbidden() *APIError { return &APIError{kind: kindForbidden} }

// ErrNotFound is the 404 ApiError::NotFound singleton shape.
func ErrNotFound() *APIError { return &APIError{kind: kindNotFound} }

// ErrMethodNotAllowed is the 405 ApiError::MethodNotAllowed singleton shape.
func ErrMethodNotAllowed() *APIError { return &APIError{kind: kindMethodNotAllowed} }

// NewServerError preserves an upstream 5xx status code verbatim.
func NewServerError(code int) *APIError { return &APIError{kind: kindServerError, code: code} }

// errKind is the closed set of SatoriError kinds.
type errKind int

const (
	errKindAPI errKind = iota
	errKindInvalidBot
	errKindInternal
)

// Error is the top-level error type returned across the SDK/App/core
// boundary: either a relayed APIError, a routing failure (no SDK owns
// the bot), or an internal failure (decode error, I/O, unexpected state).
type Error struct {
	kind  errKind
	api   *APIError
	cause error
}

func (e *Error) Error() string {
	switch e.kind {
	case errKindAPI:
		return e.api.Error()
	case errKindInvalidBot:
		return "invalid bot"
	case errKindInternal:
		return fmt.Sprintf("internal error: %v", e.cause)
	default:
		return "satori error"
	}
}

// Unwrap exposes the wrapped APIError or internal cause to errors.As/Is.
func (e *Error) Unwrap() error {
	if e.kind == errKindAPI {
		return e.api
	}
	return e.cause
}

// HTTPStatus maps this error to the HTTP status per spec.md §7.
func (e *Error) HTTPStatus() int {
	switch e.kind {
	case errKindAPI:
		return e.api.HTTPStatus()
	case errKindInvalidBot:
		return 404
	case errKindInternal:
		return 500
	default:
		return 500
	}
}

// FromAPIError lifts an ApiError into the SatoriError boundary.
func FromAPIError(api *APIError) *Error { return &Error{kind: errKindAPI, api: api} }

// ErrInvalidBot is the SatoriError::InvalidBot singleton shape: no SDK in
// the dispatch core owns the requested bot.
func ErrInvalidBot() *Error { return &Error{kind: errKindInvalidBot} }

// NewInternalError wraps cause as SatoriError::InternalError. Sites in the
// original implementation that used unwrap()/unreachable!() return this
// (or NewBadRequest, for a malformed client-supplied channel id) instead
// of a Go panic, per spec.md §9.
func NewInternalError(cause error) *Error { return &Error{kind: errKindInternal, cause: cause} }

// IsInvalidBot reports whether err is (or wraps) ErrInvalidBot.
func IsInvalidBot(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.kind == errKindInvalidBot
}
