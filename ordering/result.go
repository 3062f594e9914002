package ordering

import (
	"errors"
	"fmt"
)

// Kind classifies why a structure operation failed.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindCrossParent   Kind = "cross_parent"
	KindPersistence   Kind = "persistence"
)

// Error is the error type returned by planner and services.
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

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new *Error. The message is what users see; the
// cause is only for logs.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the Kind carried by err, or KindPersistence for foreign
// errors. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Status is the outcome reported to callers.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform {status, message} shape every public operation
// resolves to.
type Result struct {
	Status  Status `json:"status"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
}

func (r Result) OK() bool { return r.Status == StatusSuccess }

func Success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

func Failure(kind Kind, message string) Result {
	return Result{Status: StatusError, Kind: kind, Message: message}
}

// FromError converts err into a failure Result. Only the user-facing message
// of an *Error is kept; anything else becomes the fallback message.
func FromError(err error, fallback string) Result {
	var e *Error
	if errors.As(err, &e) {
		return Failure(e.Kind, e.Message)
	}
	return Failure(KindPersistence, fallback)
}
