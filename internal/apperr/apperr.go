package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the error categories surfaced to the API boundary.
type Kind string

const (
	KindConnection   Kind = "connection"
	KindQuery        Kind = "query"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindNotification Kind = "notification"
	KindInternal     Kind = "internal"
)

// Error carries a kind alongside the message and the wrapped cause.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

type Option func(*Error)

func WithCause(err error) Option {
	return func(e *Error) {
		e.cause = err
	}
}

func WithDetail(key string, value any) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

func New(kind Kind, message string, opts ...Option) *Error {
	if message == "" {
		message = string(kind)
	}
	e := &Error{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func Connection(message string, opts ...Option) *Error {
	return New(KindConnection, message, opts...)
}

func Query(message string, opts ...Option) *Error {
	return New(KindQuery, message, opts...)
}

func Validation(message string, opts ...Option) *Error {
	return New(KindValidation, message, opts...)
}

func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

func Notification(message string, opts ...Option) *Error {
	return New(KindNotification, message, opts...)
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message returns the message without the cause, safe to show to API clients.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// KindOf finds the first *Error in the chain. Unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode maps an error onto the HTTP status returned by the API.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message of the first *Error in the chain.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.message
	}
	return "internal error"
}
