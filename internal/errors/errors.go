// Package errors provides centralized error definitions and error handling utilities
// for cohort. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures of the analysis itself:
//   - InputError: the usage relation (or the table it came from) is malformed.
//     Raised before any analysis begins.
//   - ReconciliationError: a pipeline finished but its bookkeeping does not add
//     up. This is a logic defect, never a recoverable condition.
//
// Semantic errors represent common error conditions:
//   - NotFoundError: a named thing (sheet, pipeline, format) does not exist
//   - ValidationError: invalid option or configuration value
//
// # Usage
//
//	err := errors.NewInputError("duplicate component", errors.ErrDuplicateComponent).
//		WithComponent("PGM001").WithRow(12)
//
//	if errors.Is(err, errors.ErrDuplicateComponent) { ... }
//
//	var recon *errors.ReconciliationError
//	if errors.As(err, &recon) {
//		fmt.Println(recon.Expected, recon.Actual)
//	}
//
// # Error Classification
//
// Nothing in this domain is retryable: the analysis is a deterministic
// computation over a fixed snapshot, so every failure is reproducible.
// IsUserFacing separates input problems (show them) from internal defects.
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

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Input-related sentinel errors
var (
	// ErrEmptyIdentifier indicates a component or resource with a blank identifier.
	ErrEmptyIdentifier = New("empty identifier")
	// ErrDuplicateComponent indicates two rows for the same component.
	ErrDuplicateComponent = New("duplicate component")
	// ErrDuplicateResource indicates two columns for the same resource.
	ErrDuplicateResource = New("duplicate resource")
	// ErrUnknownResource indicates a component referencing a resource outside the relation.
	ErrUnknownResource = New("unknown resource")
	// ErrMissingColumn indicates the component identifier column could not be found.
	ErrMissingColumn = New("component column not found")
	// ErrColumnRange indicates the resource column range does not fit the table.
	ErrColumnRange = New("resource column range out of bounds")
	// ErrUnreadableInput indicates the source table could not be read.
	ErrUnreadableInput = New("input could not be read")
)

// Analysis-related sentinel errors
var (
	// ErrReconciliation indicates that totals did not reconcile after a pipeline ran.
	ErrReconciliation = New("reconciliation failed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CohortError is the base interface for all cohort errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CohortError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
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

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// InputError represents a malformed usage relation or source table.
//
// Example:
//
//	err := errors.NewInputError("unknown resource", errors.ErrUnknownResource)
//	err = err.WithComponent("PGM001").WithResource("CUSTMAST")
//	fmt.Println(err) // "input error [component=PGM001, resource=CUSTMAST]: unknown resource: unknown resource"
type InputError struct {
	baseError
	Component string
	Resource  string
	Column    string
	// Row is the 1-based source row, 0 when unknown.
	Row int
}

// NewInputError creates a new InputError.
func NewInputError(message string, cause error) *InputError {
	return &InputError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithComponent adds a component identifier to the error context.
func (e *InputError) WithComponent(id string) *InputError {
	e.Component = id
	return e
}

// WithResource adds a resource identifier to the error context.
func (e *InputError) WithResource(id string) *InputError {
	e.Resource = id
	return e
}

// WithColumn adds a source column label to the error context.
func (e *InputError) WithColumn(column string) *InputError {
	e.Column = column
	return e
}

// WithRow adds a 1-based source row number to the error context.
func (e *InputError) WithRow(row int) *InputError {
	e.Row = row
	return e
}

// Error returns the formatted error message.
func (e *InputError) Error() string {
	var parts []string
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("component=%s", e.Component))
	}
	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", e.Resource))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row=%d", e.Row))
	}

	prefix := "input error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("input error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *InputError) Is(target error) bool {
	if _, ok := target.(*InputError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// ReconciliationError reports totals that do not add up after a pipeline
// completed. Expected is the size of the relation side, Actual is what the
// pipeline accounted for.
//
// Example:
//
//	err := errors.NewReconciliationError("groups", "components", 120, 119)
//	fmt.Println(err) // "reconciliation error [pipeline=groups]: components: expected 120, accounted 119"
type ReconciliationError struct {
	baseError
	Pipeline string
	Subject  string
	Expected int
	Actual   int
}

// NewReconciliationError creates a new ReconciliationError.
func NewReconciliationError(pipeline, subject string, expected, actual int) *ReconciliationError {
	return &ReconciliationError{
		baseError: baseError{
			message:    fmt.Sprintf("%s: expected %d, accounted %d", subject, expected, actual),
			cause:      ErrReconciliation,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: false,
		},
		Pipeline: pipeline,
		Subject:  subject,
		Expected: expected,
		Actual:   actual,
	}
}

// WithDetail replaces the generated message with a more specific one,
// keeping the counts in the formatted output.
func (e *ReconciliationError) WithDetail(detail string) *ReconciliationError {
	e.message = fmt.Sprintf("%s: %s (expected %d, accounted %d)", e.Subject, detail, e.Expected, e.Actual)
	return e
}

// Error returns the formatted error message.
func (e *ReconciliationError) Error() string {
	prefix := "reconciliation error"
	if e.Pipeline != "" {
		prefix = fmt.Sprintf("reconciliation error [pipeline=%s]", e.Pipeline)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ReconciliationError) Is(target error) bool {
	if _, ok := target.(*ReconciliationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a named thing that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("sheet", "Online PGM")
//	fmt.Println(err) // "sheet 'Online PGM' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents an invalid option or configuration value.
//
// Example:
//
//	err := errors.NewValidationError("chunk size must be non-negative")
//	err = err.WithField("grouping.chunk_size").WithValue(-1)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
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
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "internal error: analysis totals did not reconcile")
//	    logger.Error("internal error", "error", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var cohortErr CohortError
	if As(err, &cohortErr) {
		return cohortErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CohortError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var cohortErr CohortError
	if As(err, &cohortErr) {
		return cohortErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike a bare fmt.Errorf, the CohortError interface stays reachable through As.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to read inventory")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
