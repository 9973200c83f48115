package core

import "github.com/pkg/errors"

var ErrActorRequired = errors.New("an authenticated actor is required")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Message returns the first field error if any, the wrapped error message otherwise.
func (err ValidationError) Message() string {
	if len(err.Fields) > 0 {
		return err.Fields[0].Error
	}
	return err.Error()
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	vErr, ok := errors.Cause(err).(*ValidationError)
	return vErr, ok
}

// Result is what user facing operations report instead of raising validation errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func Succeeded(msg string) Result { return Result{Success: true, Message: msg} }

func Failed(msg string) Result { return Result{Message: msg} }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
