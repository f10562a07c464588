// Package apperr defines the typed failure conditions surfaced by the motion
// and perception engines.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Code identifies the category of a failure
type Code string

const (
	// CodeInvalidArgument - malformed options, bad regions, oversized templates
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeOutOfRange - numeric input outside its documented domain
	CodeOutOfRange Code = "OUT_OF_RANGE"
	// CodeOperationFailed - an OS-level query or synthetic input call did not succeed
	CodeOperationFailed Code = "OPERATION_FAILED"
	// CodeMissingResource - OCR data directory or template file absent
	CodeMissingResource Code = "MISSING_RESOURCE"
	// CodeCanceled - cooperative cancellation observed mid-operation
	CodeCanceled Code = "CANCELED"
)

// Error is a structured failure with a category, the operation that raised it
// and an optional underlying cause.
type Error struct {
	Code    Code
	Op      string
	Message string
	Details map[string]interface{}
	Cause   error
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrOutOfRange      = &Error{Code: CodeOutOfRange}
	ErrOperationFailed = &Error{Code: CodeOperationFailed}
	ErrMissingResource = &Error{Code: CodeMissingResource}
	ErrCanceled        = &Error{Code: CodeCanceled}
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Message != "" || t.Cause != nil {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a diagnostic key/value pair.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Factory functions

func InvalidArgument(op, format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Message: fmt.Sprintf(format, args...)}
}

func OutOfRange(op, format string, args ...interface{}) *Error {
	return &Error{Code: CodeOutOfRange, Op: op, Message: fmt.Sprintf(format, args...)}
}

// OperationFailed wraps a platform error so the original code stays available.
func OperationFailed(op string, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeOperationFailed, Op: op, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// MissingResource names the resource that could not be found.
func MissingResource(op, resource string, cause error) *Error {
	e := &Error{Code: CodeMissingResource, Op: op, Message: fmt.Sprintf("not found: %s", resource), Cause: cause}
	return e.WithDetail("resource", resource)
}

// Canceled records an aborted operation. cause is normally ctx.Err().
func Canceled(op string, cause error) *Error {
	if cause == nil {
		cause = context.Canceled
	}
	return &Error{Code: CodeCanceled, Op: op, Message: "operation aborted", Cause: cause}
}

// CodeOf returns the category of err, or "" when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCanceled reports an aborted-not-failed outcome, including bare context errors.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
