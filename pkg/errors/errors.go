package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "LMDQ1001"
	ErrCodeConnectionTimeout    ErrorCode = "LMDQ1002"
	ErrCodeAuthenticationFailed ErrorCode = "LMDQ1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "LMDQ2001"
	ErrCodeConfigInvalid  ErrorCode = "LMDQ2002"
	ErrCodeConfigMissing  ErrorCode = "LMDQ2003"

	// Data access errors (4xxx)
	ErrCodeDataAccess        ErrorCode = "LMDQ4001"
	ErrCodeSQLPermission     ErrorCode = "LMDQ4002"
	ErrCodeSQLTimeout        ErrorCode = "LMDQ4003"
	ErrCodeSQLObjectNotFound ErrorCode = "LMDQ4005"
	ErrCodeNoResults         ErrorCode = "LMDQ4008"

	// Rendering errors (6xxx)
	ErrCodeRender ErrorCode = "LMDQ6001"

	// System errors (9xxx)
	ErrCodeInternal      ErrorCode = "LMDQ9001"
	ErrCodeResultParsing ErrorCode = "LMDQ9005"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Summary returns a single line description suitable for inline display.
func (e *AppError) Summary() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSuggestions(
			"Check your network connection",
			"Verify the Snowflake account identifier",
			"Use the Refresh button once the warehouse is reachable",
		)
}

// NotConnected reports a query attempted without an open session.
func NotConnected() *AppError {
	return New(ErrCodeConnectionFailed, "not connected to warehouse").
		WithSuggestions("Open the warehouse session before running queries")
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'labelme setup' to reconfigure",
		)
}

// DataAccessError wraps a failed warehouse query. The code is narrowed to
// ErrCodeSQLObjectNotFound, ErrCodeSQLPermission or ErrCodeSQLTimeout when
// the driver message makes the cause clear.
func DataAccessError(query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeDataAccess, fmt.Sprintf("query %s failed", query)).
		WithContext("query", query)

	msg := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found"):
		err.Code = ErrCodeSQLObjectNotFound
		_ = err.WithSuggestions(
			"Verify the object exists in the target database/schema",
			"Make sure the demo is fully deployed",
		)
	case strings.Contains(msg, "insufficient privileges") || strings.Contains(msg, "access denied"):
		err.Code = ErrCodeSQLPermission
		_ = err.WithSuggestions("Verify the role has SELECT on the dashboard views")
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions("Increase snowflake.timeout or check the warehouse size")
	}

	return err
}

// EmptyResult marks a query that succeeded without returning rows. It is
// informational and never rendered as a failure.
func EmptyResult(query string) *AppError {
	return New(ErrCodeNoResults, fmt.Sprintf("query %s returned no rows", query)).
		WithContext("query", query).
		WithSeverity(SeverityInfo)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// IsEmptyResult reports whether err is an EmptyResult condition.
func IsEmptyResult(err error) bool {
	return GetErrorCode(err) == ErrCodeNoResults
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Summary returns the inline message for err.
func Summary(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Summary()
	}
	return err.Error()
}
