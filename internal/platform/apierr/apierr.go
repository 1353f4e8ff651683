package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the one error shape handlers know how to translate. Code is a
// stable machine-readable tag; Status is the HTTP status to surface.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func InvalidInput(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "invalid_input", fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "not_found", fmt.Errorf(format, args...))
}

func BranchNotFound(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "branch_not_found", fmt.Errorf(format, args...))
}

func Unavailable(err error) *Error {
	return New(http.StatusBadGateway, "embedding_unavailable", err)
}

func Timeout(err error) *Error {
	return New(http.StatusInternalServerError, "timeout", err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// From coerces any error into an *Error, defaulting to internal/500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
