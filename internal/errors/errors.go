// Package errors defines the structured error type used across macrodoc,
// with error categories, stable codes, and optional file locations so
// diagnostics can point at the offending definition line.
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
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// MacrodocError is a structured error type with context.
type MacrodocError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Macro       string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *MacrodocError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Macro != "" {
		parts = append(parts, "macro:"+e.Macro)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
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
func (e *MacrodocError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *MacrodocError) Is(target error) bool {
	var t *MacrodocError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *MacrodocError) WithLocation(filePath string, line int) *MacrodocError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithMacro adds macro context.
func (e *MacrodocError) WithMacro(name string) *MacrodocError {
	e.Macro = name

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewRenderError creates a render error.
func NewRenderError(code, message string, cause error) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var me *MacrodocError
	if errors.As(err, &me) {
		return me.Recoverable
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodePathTraversal    = "ERR_PATH_TRAVERSAL"
	ErrCodeDocumentNotFound = "ERR_DOCUMENT_NOT_FOUND"
	ErrCodeMacroFileRead    = "ERR_MACRO_FILE_READ"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *MacrodocError {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ErrPathTraversal creates a path traversal validation error.
func ErrPathTraversal(path string) *MacrodocError {
	return &MacrodocError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodePathTraversal,
		Message:     "path traversal attempt: " + path,
		Recoverable: false,
	}
}

// ErrDocumentNotFound creates a document not found error.
func ErrDocumentNotFound(name string) *MacrodocError {
	return NewValidationError(ErrCodeDocumentNotFound, "document not found: "+name)
}

// ErrRenderFailed creates a render failure error.
func ErrRenderFailed(document string, cause error) *MacrodocError {
	return NewRenderError(ErrCodeRenderFailed, "render failed for document: "+document, cause)
}
