// Package haligerr defines the error taxonomy shared by every runtime
// subsystem: parsing, schema validation, tool dispatch, configuration, and
// the benchmark safety gate.
package haligerr

import "fmt"

// HalliganError is implemented by every error type in this package. Stage
// orchestrators type-switch on it to decide whether a failure is retryable.
type HalliganError interface {
	error
	Retryable() bool
}

// ParseError is raised when no JSON value can be extracted from model output.
type ParseError struct {
	Message string
	Cause   error
}

func NewParseError(message string, cause error) *ParseError {
	return &ParseError{Message: message, Cause: cause}
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }
func (e *ParseError) Retryable() bool { return true }

// ValidationError is raised when parsed JSON does not conform to the
// expected schema, or when a global post-condition (e.g. the Stage-2
// single-interactable invariant) fails. Path is a JSONPath-like position
// such as "$.relations[2].from".
type ValidationError struct {
	Path    string
	Message string
}

func NewValidationError(path, message string) *ValidationError {
	return &ValidationError{Path: path, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("validation error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Retryable() bool { return true }

// ToolError is raised when a Stage-3 step references an unknown tool or a
// disallowed method, a step is malformed, or a tool/method invocation
// itself fails.
type ToolError struct {
	Message string
	Cause   error
}

func NewToolError(message string, cause error) *ToolError {
	return &ToolError{Message: message, Cause: cause}
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tool error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("tool error: %s", e.Message)
}

func (e *ToolError) Unwrap() error   { return e.Cause }
func (e *ToolError) Retryable() bool { return true }

// ConfigError is raised when a required environment variable is missing at
// a `Require(...)` call site. It is fatal to the invoking command.
type ConfigError struct {
	Message string
}

func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

func (e *ConfigError) Error() string   { return fmt.Sprintf("configuration error: %s", e.Message) }
func (e *ConfigError) Retryable() bool { return false }

// UnsafeTargetError is raised when a non-local benchmark URL is configured
// without the explicit override. It is fatal; the user must set the
// override or point at a local host.
type UnsafeTargetError struct {
	Message string
	URL     string
}

func NewUnsafeTargetError(message, url string) *UnsafeTargetError {
	return &UnsafeTargetError{Message: message, URL: url}
}

func (e *UnsafeTargetError) Error() string {
	return fmt.Sprintf("unsafe target: %s (url=%q)", e.Message, e.URL)
}

func (e *UnsafeTargetError) Retryable() bool { return false }

// IsRetryable reports whether err is a HalliganError whose Retryable() is
// true. Non-Halligan errors (unexpected exceptions) are never retryable —
// the orchestrator must let them propagate per spec.
func IsRetryable(err error) bool {
	he, ok := err.(HalliganError)
	return ok && he.Retryable()
}
