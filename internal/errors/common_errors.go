package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeModel      ErrorType = "MODEL"
	ErrTypeRender     ErrorType = "RENDER"
	ErrTypeStorage    ErrorType = "STORAGE"
)

// AppError represents an application-specific error.
// The type is not part of Error() so the message can be shown to the user verbatim;
// it is reported as a structured log attribute instead.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError creates the error reported when the input file is missing
func NewNotFoundError(path string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("⚠️ File non trovato: %s", path), nil).
		WithContext("path", path)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewModelError creates a model fitting or prediction error
func NewModelError(message string, cause error) *AppError {
	return NewAppError(ErrTypeModel, message, cause)
}

// NewRenderError creates a chart or table rendering error
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
