// Package errors provides centralized error definitions and error handling
// utilities for the lockstep codebase. It defines domain-specific errors,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - CommandError: an external command exited non-zero
//   - StoreError: the shared ledger transport failed
//   - RepositoryError: errors related to a managed repository
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewCommandError("git log failed", errors.ErrCommandFailed).
//	        WithExitCode(128).
//	        WithStderr("fatal: bad revision")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrStoreUnreachable) { ... }
//
//	var cmdErr *errors.CommandError
//	if errors.As(err, &cmdErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Command-related sentinel errors
var (
	// ErrCommandFailed indicates an external command exited non-zero.
	ErrCommandFailed = New("command failed")
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
)

// Store-related sentinel errors
var (
	// ErrStoreUnreachable indicates the ledger transport failed with no usable cache.
	ErrStoreUnreachable = New("store unreachable")
	// ErrInvalidStoreConfig indicates a malformed store configuration.
	ErrInvalidStoreConfig = New("invalid store configuration")
)

// Repository-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrRepositoryNotSetup indicates lockstep has not been set up in the repository.
	ErrRepositoryNotSetup = New("repository is not set up for lockstep")
	// ErrNoRemote indicates the repository has no configured remote.
	ErrNoRemote = New("repository has no remote")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	cause   error
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// CommandError represents a failed external command.
//
// Example:
//
//	err := errors.NewCommandError("branch query failed", errors.ErrCommandFailed)
//	err = err.WithDir("/path/to/clone").WithExitCode(129).WithStderr(out)
type CommandError struct {
	baseError
	Dir      string
	ExitCode int
	Stderr   string
}

// NewCommandError creates a new CommandError.
func NewCommandError(message string, cause error) *CommandError {
	return &CommandError{
		baseError: baseError{message: message, cause: cause},
		ExitCode:  -1, // -1 indicates the process did not run to completion
	}
}

// WithDir adds the working directory to the error context.
func (e *CommandError) WithDir(dir string) *CommandError {
	e.Dir = dir
	return e
}

// WithExitCode adds the process exit code to the error context.
func (e *CommandError) WithExitCode(code int) *CommandError {
	e.ExitCode = code
	return e
}

// WithStderr adds captured stderr to the error context.
func (e *CommandError) WithStderr(stderr string) *CommandError {
	e.Stderr = strings.TrimSpace(stderr)
	return e
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	var parts []string
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := "command error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("command error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\nstderr: %s", msg, e.Stderr)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *CommandError) Is(target error) bool {
	if _, ok := target.(*CommandError); ok {
		return true
	}
	if errors.Is(target, ErrCommandFailed) {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError represents a ledger transport failure.
//
// Example:
//
//	err := errors.NewStoreError("ledger read failed", errors.ErrStoreUnreachable).
//	        WithURL(url).WithStatusCode(503)
type StoreError struct {
	baseError
	URL        string
	StatusCode int
}

// NewStoreError creates a new StoreError.
func NewStoreError(message string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithURL adds the store endpoint to the error context.
func (e *StoreError) WithURL(url string) *StoreError {
	e.URL = url
	return e
}

// WithStatusCode adds the HTTP status code to the error context.
func (e *StoreError) WithStatusCode(code int) *StoreError {
	e.StatusCode = code
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("url=%s", e.URL))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	prefix := "store error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("store error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// RepositoryError represents errors related to a managed repository.
type RepositoryError struct {
	baseError
	Path string
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(message string, cause error) *RepositoryError {
	return &RepositoryError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithPath adds the repository path to the error context.
func (e *RepositoryError) WithPath(path string) *RepositoryError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *RepositoryError) Error() string {
	prefix := "repository error"
	if e.Path != "" {
		prefix = fmt.Sprintf("repository error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *RepositoryError) Is(target error) bool {
	if _, ok := target.(*RepositoryError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or configuration.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{message: message},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to resolve last commits")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
