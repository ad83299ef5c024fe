// Package apperr provides coded application errors shared by the domain,
// the drivers and the CLI.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes organized by category.
const (
	CodeUnknown = 1000

	// Input validation (1000-1099)
	CodeInvalidParams = 1001
	CodeInvalidRange  = 1002
	CodeInvalidStyle  = 1003
	CodeInvalidRatio  = 1004

	// Media backend (1100-1199)
	CodeProbe        = 1100
	CodeAudioExtract = 1101
	CodeRender       = 1102
	CodeFetch        = 1103

	// Transcription (1200-1299)
	CodeTranscribe = 1200

	// Output (1300-1399)
	CodeSubtitleWrite = 1300
	CodeClipsFailed   = 1301
)

// AppError is an error carrying a stable numeric code.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// New creates an AppError without a cause.
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code int, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to cause.
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// WrapWithDetail is Wrap plus a human readable detail string.
func WrapWithDetail(code int, message, detail string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Detail: detail, Cause: cause}
}

// Is reports whether err (or anything it wraps) is an AppError with code.
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode returns the code of the first AppError in err's chain, or CodeUnknown.
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
