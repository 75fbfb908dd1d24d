// Package errors defines the coded errors shared by the editor core and
// its hosts.
//
// Every failure a caller may want to branch on carries a [Code]. Codes
// group into a [Class] (bad input, conflict, missing resource, unsupported,
// internal) that hosts translate into exit statuses or HTTP statuses.
//
// # Codes
//
//   - INVALID_PATH: an edit path does not match the schema shape
//   - INVALID_VALUE: a value tree does not conform to its schema
//   - DUPLICATE_LINK: at most one link may join an ordered node pair
//   - DANGLING_REFERENCE: a document names a node that does not exist
//   - MALFORMED_DOCUMENT: a document cannot be decoded at all
//
// Editing failures are recovered locally: the edit is rejected and the
// previous state kept. Decoding drops dangling references with a
// diagnostic; it fails hard on MALFORMED_DOCUMENT, and on INVALID_VALUE
// in strict mode.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPath, "cannot descend into %s", kind)
//	if errors.Is(err, errors.ErrCodeInvalidPath) {
//	    // keep the old value
//	}
//
//	err = errors.Wrap(errors.ErrCodeMalformedDocument, cause, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidValue  Code = "INVALID_VALUE"
	ErrCodeInvalidSchema Code = "INVALID_SCHEMA"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	ErrCodeDuplicateLink     Code = "DUPLICATE_LINK"
	ErrCodeDuplicateID       Code = "DUPLICATE_ID"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"

	ErrCodeMalformedDocument Code = "MALFORMED_DOCUMENT"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Class groups codes by who has to act on them.
type Class int

const (
	ClassInternal    Class = iota // unknown codes and plain errors
	ClassInput                    // the caller sent something unusable
	ClassConflict                 // the request clashes with existing state
	ClassNotFound                 // the addressed entity or session is gone
	ClassUnsupported              // the operation or format is not available
)

var classes = map[Code]Class{
	ErrCodeInvalidInput:      ClassInput,
	ErrCodeInvalidPath:       ClassInput,
	ErrCodeInvalidValue:      ClassInput,
	ErrCodeInvalidSchema:     ClassInput,
	ErrCodeInvalidConfig:     ClassInput,
	ErrCodeDanglingReference: ClassInput,
	ErrCodeMalformedDocument: ClassInput,
	ErrCodeDuplicateLink:     ClassConflict,
	ErrCodeDuplicateID:       ClassConflict,
	ErrCodeNotFound:          ClassNotFound,
	ErrCodeSessionNotFound:   ClassNotFound,
	ErrCodeUnsupported:       ClassUnsupported,
}

// Class returns the class of c.
func (c Code) Class() Class { return classes[c] }

// ClassOf returns the class of the outermost coded error in err's chain,
// or ClassInternal.
func ClassOf(err error) Class { return GetCode(err).Class() }

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	c := GetCode(err)
	return c != "" && c == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns err without its code prefix. Plain errors are
// returned as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
