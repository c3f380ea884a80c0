package core

import "github.com/pkg/errors"

// ErrOffline is returned by network dependent operations when no connection is available.
var ErrOffline = errors.New("no internet connection")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
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

// AsValidationError unwraps `err` into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	verr, ok := errors.Cause(err).(*ValidationError)
	return verr, ok
}

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
