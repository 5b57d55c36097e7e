package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Per-file error classes. The orchestrator maps these to failure reason codes
// at its boundary; SetupError aborts the whole run before any file is processed.
var (
	ErrExtraction = errors.New("extraction failed")
	ErrLLM        = errors.New("llm request failed")
	ErrParse      = errors.New("malformed json response")
	ErrDuplicate  = errors.New("duplicate filename")
	ErrForeignKey = errors.New("missing parent row")
	ErrNotFound   = errors.New("resource not found")
	ErrSetup      = errors.New("setup error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
