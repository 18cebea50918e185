package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	KindConfig
	KindStorage
	KindIO
	KindDatabase
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config_error"
	case KindStorage:
		return "storage_error"
	case KindIO:
		return "io_error"
	case KindDatabase:
		return "database_error"
	default:
		return "internal_server_error"
	}
}

// Error is an application error with a kind, a client-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args []any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args) }

// BadRequest reports invalid input or an exhausted resource.
func BadRequest(format string, args ...any) *Error { return newf(KindBadRequest, format, args) }

// Conflict reports an operation refused by a state guard.
func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args) }

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args)
	e.Err = err
	return e
}

// Config reports invalid configuration.
func Config(format string, args ...any) *Error { return newf(KindConfig, format, args) }

// Storage wraps a blob backend failure.
func Storage(err error, format string, args ...any) *Error {
	e := newf(KindStorage, format, args)
	e.Err = err
	return e
}

// IO wraps a local filesystem failure.
func IO(err error, format string, args ...any) *Error {
	e := newf(KindIO, format, args)
	e.Err = err
	return e
}

// Database wraps a driver failure.
func Database(err error, format string, args ...any) *Error {
	e := newf(KindDatabase, format, args)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusCode maps err to an HTTP status code.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. The wrapped cause
// is never included.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal server error"
	}
	return e.Message
}
