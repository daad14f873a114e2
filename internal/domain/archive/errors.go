package archive

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes.
const (
	ErrCodeInvalidPath      = "INVALID_PATH"
	ErrCodeInvalidSource    = "INVALID_SOURCE"
	ErrCodeInvalidChecksum  = "INVALID_CHECKSUM"
	ErrCodeInvalidEnumValue = "INVALID_ENUM_VALUE"
	ErrCodeProbe            = "PROBE_ERROR"
	ErrCodeChecksumMismatch = "CHECKSUM_MISMATCH"
	ErrCodeFetch            = "FETCH_ERROR"
	ErrCodeExtract          = "EXTRACT_ERROR"
	ErrCodeIO               = "IO_ERROR"
)

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrInvalidPath      = &Error{Code: ErrCodeInvalidPath}
	ErrInvalidSource    = &Error{Code: ErrCodeInvalidSource}
	ErrInvalidChecksum  = &Error{Code: ErrCodeInvalidChecksum}
	ErrInvalidEnumValue = &Error{Code: ErrCodeInvalidEnumValue}
	ErrProbe            = &Error{Code: ErrCodeProbe}
	ErrChecksumMismatch = &Error{Code: ErrCodeChecksumMismatch}
	ErrFetch            = &Error{Code: ErrCodeFetch}
	ErrExtract          = &Error{Code: ErrCodeExtract}
	ErrIO               = &Error{Code: ErrCodeIO}
)

// Error is a reconciliation failure. Path and Action let the caller
// correlate it with a resource; Stage names the executor step that failed.
type Error struct {
	Code       string
	Message    string
	Field      string
	Path       string
	Action     ActionKind
	Stage      Stage
	Underlying error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, "archive "+e.Path)
	}
	if e.Action != "" {
		parts = append(parts, string(e.Action))
	}
	if e.Stage != "" {
		parts = append(parts, string(e.Stage))
	}

	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(e.Code, "_", " "))
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}

	if len(parts) > 0 {
		return strings.Join(parts, ": ") + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var list *ValidationErrors
	if errors.As(err, &list) {
		for _, item := range list.errs {
			if item.Code == code {
				return true
			}
		}
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func newFieldError(code, field, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationErrors accumulates every field violation of one descriptor.
type ValidationErrors struct {
	path string
	errs []*Error
}

// Add appends a violation.
func (l *ValidationErrors) Add(err *Error) {
	if err != nil {
		err.Path = l.path
		l.errs = append(l.errs, err)
	}
}

// HasErrors returns true if there are any errors.
func (l *ValidationErrors) HasErrors() bool {
	return len(l.errs) > 0
}

// Len returns the number of errors.
func (l *ValidationErrors) Len() int {
	return len(l.errs)
}

// Errors returns a copy of the collected errors.
func (l *ValidationErrors) Errors() []*Error {
	out := make([]*Error, len(l.errs))
	copy(out, l.errs)
	return out
}

// Error implements the error interface.
func (l *ValidationErrors) Error() string {
	switch len(l.errs) {
	case 0:
		return ""
	case 1:
		return l.errs[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "archive %s: %d validation errors:", l.path, len(l.errs))
	for _, err := range l.errs {
		fmt.Fprintf(&b, "\n  - [%s] %s: %s", err.Code, err.Field, err.Message)
	}
	return b.String()
}

// Unwrap exposes every violation to errors.Is and errors.As.
func (l *ValidationErrors) Unwrap() []error {
	out := make([]error, len(l.errs))
	for i, err := range l.errs {
		out[i] = err
	}
	return out
}

// AsError returns the list as an error, or nil if empty.
func (l *ValidationErrors) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}
