// Package errors provides centralized error handling with categories that map
// onto the intake API's error taxonomy, plus an optional reporting hook.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	// CategoryValidation is user-correctable bad input, returned as 400.
	CategoryValidation ErrorCategory = "validation"
	// CategoryConfiguration is operator-fixable misconfiguration, returned as 500.
	CategoryConfiguration ErrorCategory = "configuration"
	// CategoryUpstream covers non-2xx backend responses, malformed backend
	// JSON and network failures, returned as 502.
	CategoryUpstream ErrorCategory = "upstream"
	CategoryNetwork  ErrorCategory = "network"
	CategoryHTTP     ErrorCategory = "http-request"
	CategoryNotFound ErrorCategory = "not-found"
	CategoryState    ErrorCategory = "state"
	CategoryGeneric  ErrorCategory = "generic"
)

// Priority constants for error prioritization
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when no component was set on the error.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for grouping
	Priority  string         // Explicit priority override (optional)
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
	mu        sync.RWMutex
	reported  bool // Whether the reporting hook has been invoked
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches two EnhancedErrors by category, otherwise defers to the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return Is(ee.Err, target)
}

// GetContext returns a copy of the error context.
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// MarkReported marks this error as already sent to the reporting hook.
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	ee.reported = true
}

// IsReported returns whether this error has been reported.
func (ee *EnhancedError) IsReported() bool {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	return ee.reported
}

// HTTPStatus maps the error category onto the API's status codes.
// Unrecognized categories fall back to 500 so internal failures never leak
// as client errors.
func (ee *EnhancedError) HTTPStatus() int {
	switch ee.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryUpstream, CategoryNetwork:
		return http.StatusBadGateway
	case CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error with enhanced context
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Priority sets the explicit priority override for the error
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		if priority != "" {
			eb.priority = PriorityMedium
		}
	}
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError and triggers optional reporting.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	report(ee)
	return ee
}

// Reporter receives built errors when reporting is enabled. Implemented by
// the telemetry package; the indirection avoids a circular dependency.
type Reporter interface {
	ReportError(ee *EnhancedError)
}

var (
	reporterMu     sync.RWMutex
	activeReporter Reporter
	hasReporter    atomic.Bool
)

// SetReporter installs the global error reporter. Passing nil disables reporting.
func SetReporter(r Reporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	activeReporter = r
	hasReporter.Store(r != nil)
}

func report(ee *EnhancedError) {
	// Fast path: skip the lock entirely when no reporter is installed.
	if !hasReporter.Load() {
		return
	}
	reporterMu.RLock()
	r := activeReporter
	reporterMu.RUnlock()
	if r != nil && !ee.IsReported() {
		r.ReportError(ee)
		ee.MarkReported()
	}
}

// Convenience constructors for the taxonomy's common cases.

// ValidationError creates a user-correctable validation error.
func ValidationError(message string) *EnhancedError {
	return New(NewStd(message)).Category(CategoryValidation).Build()
}

// ConfigurationError creates an operator-fixable configuration error.
func ConfigurationError(message string) *EnhancedError {
	return New(NewStd(message)).Category(CategoryConfiguration).Build()
}

// Standard library passthrough functions so this package can be used as a
// drop-in replacement for the standard errors package.

// NewStd creates a new standard error (passthrough to standard library)
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target (passthrough to standard library)
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target (passthrough to standard library)
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err (passthrough to standard library)
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors (passthrough to standard library)
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory checks if an error is an EnhancedError with the specified category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// HTTPStatusFor returns the API status code for any error. Non-enhanced
// errors map to 500.
func HTTPStatusFor(err error) int {
	var enhancedErr *EnhancedError
	if As(err, &enhancedErr) {
		return enhancedErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
