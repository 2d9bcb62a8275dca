// Package errors provides the structured error type shared by the bundler
// packages.
//
// Errors are classified by type so callers can tell a fatal configuration
// problem (missing manifest, unparseable settings file) from a bundling
// failure, and by code so tests and the CLI can match on a stable identifier.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBundle     ErrorType = "bundle"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeSettingsParse   = "ERR_SETTINGS_PARSE"
	ErrCodeManifestMissing = "ERR_MANIFEST_MISSING"
	ErrCodeManifestParse   = "ERR_MANIFEST_PARSE"
	ErrCodeTSConfigParse   = "ERR_TSCONFIG_PARSE"
	ErrCodeUnknownStage    = "ERR_UNKNOWN_STAGE"
	ErrCodeBundleFailed    = "ERR_BUNDLE_FAILED"
	ErrCodeTypeCheckFailed = "ERR_TYPECHECK_FAILED"
	ErrCodeWriteFailed     = "ERR_WRITE_FAILED"
	ErrCodeInvalidState    = "ERR_STATE"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// Error is a structured error type with context.
type Error struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Project  string
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Project != "" {
		parts = append(parts, "project:"+e.Project)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel values can be used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information.
func (e *Error) WithFile(filePath string) *Error {
	e.FilePath = filePath

	return e
}

// WithProject records the project the error belongs to.
func (e *Error) WithProject(project string) *Error {
	e.Project = project

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewConfigError creates a configuration error. Configuration errors are
// always fatal for the invocation that raised them.
func NewConfigError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeConfig, Code: code, Message: message, Cause: cause}
}

// NewBundleError creates a bundling error.
func NewBundleError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeBundle, Code: code, Message: message, Cause: cause}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return HasErrorType(err, ErrorTypeConfig)
}

// IsBundleError checks if an error came from the bundler.
func IsBundleError(err error) bool {
	return HasErrorType(err, ErrorTypeBundle)
}

// HasErrorType reports whether any error in the chain has the given type.
func HasErrorType(err error, errType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}

	return false
}

// HasErrorCode reports whether any error in the chain has the given code.
func HasErrorCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}

	return false
}
