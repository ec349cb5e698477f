package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Package metadata errors
	ErrDescriptorParse  ErrorCode = "DESCRIPTOR_PARSE"
	ErrManifestRead     ErrorCode = "MANIFEST_READ"
	ErrDuplicatePackage ErrorCode = "DUPLICATE_PACKAGE"
	ErrDependencyCycle  ErrorCode = "DEPENDENCY_CYCLE"

	// Structural changes that are resolved by reinitialization
	ErrAmbiguousChange ErrorCode = "AMBIGUOUS_CHANGE"

	// FileSystem errors
	ErrFilesystem    ErrorCode = "FILESYSTEM"
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"

	// Watch layer errors
	ErrWatch ErrorCode = "WATCH"
)

// PkglinkError represents a structured error with code and details
type PkglinkError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PkglinkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PkglinkError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PkglinkError) Is(target error) bool {
	var targetErr *PkglinkError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PkglinkError with the given code and message
func New(code ErrorCode, message string) *PkglinkError {
	return &PkglinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PkglinkError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PkglinkError {
	return &PkglinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PkglinkError
func Wrap(err error, code ErrorCode, message string) *PkglinkError {
	if err == nil {
		return nil
	}
	return &PkglinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PkglinkError {
	if err == nil {
		return nil
	}
	return &PkglinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PkglinkError) WithDetail(key string, value interface{}) *PkglinkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var pkgErr *PkglinkError
	if errors.As(err, &pkgErr) {
		return pkgErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PkglinkError
func GetErrorCode(err error) ErrorCode {
	var pkgErr *PkglinkError
	if errors.As(err, &pkgErr) {
		return pkgErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a PkglinkError
func GetErrorDetails(err error) map[string]interface{} {
	var pkgErr *PkglinkError
	if errors.As(err, &pkgErr) {
		return pkgErr.Details
	}
	return nil
}
