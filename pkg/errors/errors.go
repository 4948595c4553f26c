package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a failure
type ErrorType string

const (
	// ErrorTypeConfig marks missing or invalid run preconditions (credentials, settings)
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeNetwork marks transport failures while fetching a page
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing marks bodies that are not a decodable timeline document
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeAPI marks well-formed JSON bodies that only carry upstream errors
	ErrorTypeAPI ErrorType = "api"
	// ErrorTypeStorage marks report and archive write failures
	ErrorTypeStorage ErrorType = "storage"
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrNoData is returned when a complete run produced zero records
var ErrNoData = stderrors.New("no timeline records collected")

// Error represents a typed failure with an optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, err error, msg string) *Error {
	return &Error{Type: t, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

// IsType reports whether err (or anything it wraps) is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsFetchFailure reports whether err ends a crawl as a fetch failure
func IsFetchFailure(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeParsing, ErrorTypeAPI:
		return true
	default:
		return false
	}
}
