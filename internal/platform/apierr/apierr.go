package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the core services. Every expected failure mode maps
// to one of these codes; anything else is a storage fault.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeSyntax     = "invalid_query"
	CodeConflict   = "conflict"
	CodeStorage    = "storage_error"
)

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

func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Syntax(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeSyntax, fmt.Errorf(format, args...))
}

func Conflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Errorf(format, args...))
}

func Storage(err error) *Error {
	return New(http.StatusInternalServerError, CodeStorage, err)
}

func HasCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func IsValidation(err error) bool { return HasCode(err, CodeValidation) }
func IsNotFound(err error) bool   { return HasCode(err, CodeNotFound) }
func IsSyntax(err error) bool     { return HasCode(err, CodeSyntax) }
func IsConflict(err error) bool   { return HasCode(err, CodeConflict) }
