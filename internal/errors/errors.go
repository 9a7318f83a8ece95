package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeArgument   ErrorType = "argument"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRead       ErrorType = "read"
	ErrorTypeWrite      ErrorType = "write"
	ErrorTypeDimension  ErrorType = "dimension"
	ErrorTypeConfig     ErrorType = "config"
)

// AppError represents a structured application error
type AppError struct {
	Type     ErrorType
	Message  string
	Path     string
	ExitCode int
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewArgumentError is returned when the command line is incomplete.
// The exit code is supplied by the caller since a short command line is
// reported as usage help rather than a failure by default.
func NewArgumentError(message string, exitCode int) *AppError {
	return &AppError{
		Type:     ErrorTypeArgument,
		Message:  message,
		ExitCode: exitCode,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeValidation,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

// NewReadError creates a new read error for path
func NewReadError(path string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeRead,
		Message:  "error reading file",
		Path:     path,
		ExitCode: 1,
		Cause:    cause,
	}
}

// NewWriteError creates a new write error for path
func NewWriteError(path string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeWrite,
		Message:  "error writing file",
		Path:     path,
		ExitCode: 1,
		Cause:    cause,
	}
}

func NewDimensionError(message string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeDimension,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

func NewConfigError(message string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeConfig,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetExitCode extracts the process exit code from an error
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return 1
}
