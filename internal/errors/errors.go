// Package errors provides the structured error types used across templatize.
// Every failure surfaced to a caller carries a category, a stable code, and
// the path/token/field it concerns, so planning, execution, restoration, and
// sanitization failures stay distinguishable.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes templatize errors.
type ErrorType string

const (
	ErrorTypeConfig              ErrorType = "config"
	ErrorTypePathTraversal       ErrorType = "path_traversal"
	ErrorTypeIO                  ErrorType = "io"
	ErrorTypeCorruptedLog        ErrorType = "corrupted_log"
	ErrorTypeIncompatibleVersion ErrorType = "incompatible_version"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeSanitizationConfig  ErrorType = "sanitization_config"
	ErrorTypeInternal            ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeMissingPlaceholder  = "ERR_MISSING_PLACEHOLDER"
	ErrCodeInvalidRuleTable    = "ERR_INVALID_RULE_TABLE"
	ErrCodeUnknownProjectType  = "ERR_UNKNOWN_PROJECT_TYPE"
	ErrCodePathTraversal       = "ERR_PATH_TRAVERSAL"
	ErrCodeReadFailed          = "ERR_READ_FAILED"
	ErrCodeWriteFailed         = "ERR_WRITE_FAILED"
	ErrCodeRemoveFailed        = "ERR_REMOVE_FAILED"
	ErrCodeLogMalformed        = "ERR_LOG_MALFORMED"
	ErrCodeLogMissingField     = "ERR_LOG_MISSING_FIELD"
	ErrCodeLogVersion          = "ERR_LOG_VERSION"
	ErrCodeLogNotFound         = "ERR_LOG_NOT_FOUND"
	ErrCodeFileNotFound        = "ERR_FILE_NOT_FOUND"
	ErrCodeTokenUnmapped       = "ERR_TOKEN_UNMAPPED"
	ErrCodeInvalidSanitizeRule = "ERR_INVALID_SANITIZE_RULE"
	ErrCodeInternal            = "ERR_INTERNAL"
)

// TemplatizeError is a structured error with category, code, and context.
type TemplatizeError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Path        string
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *TemplatizeError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TemplatizeError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel-style comparisons work.
func (e *TemplatizeError) Is(target error) bool {
	var t *TemplatizeError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *TemplatizeError) WithContext(key string, value interface{}) *TemplatizeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath attaches the offending file path.
func (e *TemplatizeError) WithPath(path string) *TemplatizeError {
	e.Path = path

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewPathTraversalError creates an error for a plan action escaping the
// project root.
func NewPathTraversalError(path string) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypePathTraversal,
		Code:        ErrCodePathTraversal,
		Message:     "path escapes project root",
		Path:        path,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error carrying the path and underlying cause.
func NewIOError(code, message, path string, cause error) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Path:        path,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewCorruptedLogError creates an error for an undo log that fails
// structural validation.
func NewCorruptedLogError(code, message string, cause error) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeCorruptedLog,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIncompatibleVersionError creates an error for an unsupported undo log
// schema version.
func NewIncompatibleVersionError(got, want string) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeIncompatibleVersion,
		Code:        ErrCodeLogVersion,
		Message:     fmt.Sprintf("undo log version %q is not compatible with %q", got, want),
		Recoverable: false,
	}
}

// NewNotFoundError creates a not-found error for a log or target file.
func NewNotFoundError(code, message, path string) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Path:        path,
		Recoverable: false,
	}
}

// NewSanitizationConfigError creates an error for a malformed custom
// sanitization rule.
func NewSanitizationConfigError(message string) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeSanitizationConfig,
		Code:        ErrCodeInvalidSanitizeRule,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *TemplatizeError {
	return &TemplatizeError{
		Type:        ErrorTypeInternal,
		Code:        ErrCodeInternal,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsType reports whether err is a TemplatizeError of the given type.
func IsType(err error, t ErrorType) bool {
	var te *TemplatizeError
	if errors.As(err, &te) {
		return te.Type == t
	}

	return false
}

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsCorruptedLog reports whether err indicates a structurally invalid undo log.
func IsCorruptedLog(err error) bool {
	return IsType(err, ErrorTypeCorruptedLog)
}

// IsIncompatibleVersion reports whether err indicates an unsupported undo log
// schema version.
func IsIncompatibleVersion(err error) bool {
	return IsType(err, ErrorTypeIncompatibleVersion)
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TemplatizeError
	if errors.As(err, &te) {
		return te.Recoverable
	}

	return false
}
