package resetfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Structural error reasons.
const (
	ReasonNoMainPart            = "no-main-part"
	ReasonAmbiguousMainPart     = "ambiguous-main-part"
	ReasonNoDocumentRoot        = "no-document-root"
	ReasonAmbiguousDocumentRoot = "ambiguous-document-root"
)

// StructuralError reports a malformed package: the main document part or
// its document root is missing or not unique. The operation must be aborted.
type StructuralError struct {
	Reason string
	Count  int
}

func (e *StructuralError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("structural error: %s (%d matches)", e.Reason, e.Count)
	}
	return fmt.Sprintf("structural error: %s", e.Reason)
}

// NewStructuralError creates a new structural error
func NewStructuralError(reason string, count int) error {
	return &StructuralError{
		Reason: reason,
		Count:  count,
	}
}

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// HostError wraps a failed round trip to the document host. The cause is
// passed through unchanged; nothing is retried.
type HostError struct {
	Operation string
	Cause     error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("document host failed during %s: %v", e.Operation, e.Cause)
}

func (e *HostError) Unwrap() error {
	return e.Cause
}

// NewHostError creates a new host error
func NewHostError(operation string, cause error) error {
	return &HostError{
		Operation: operation,
		Cause:     cause,
	}
}

// RangeError reports a position outside the document body.
type RangeError struct {
	Position Position
	Blocks   int
	Message  string
}

func (e *RangeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("range error at %s: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("range error: position %s outside body of %d blocks", e.Position, e.Blocks)
}

// NewRangeError creates a new range error
func NewRangeError(pos Position, blocks int, message string) error {
	return &RangeError{
		Position: pos,
		Blocks:   blocks,
		Message:  message,
	}
}

// ConfigIssue represents a single configuration problem
type ConfigIssue struct {
	Field   string
	Message string
}

// ConfigError represents one or more configuration issues
type ConfigError struct {
	Issues []ConfigIssue
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return "config error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("config error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d config issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

func (e *ConfigError) add(field, format string, args ...interface{}) {
	e.Issues = append(e.Issues, ConfigIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors.
func (m *MultiError) Errors() []error {
	return append([]error(nil), m.errors...)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap lets errors.Is and errors.As look into every collected error.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsStructuralError checks if an error is or wraps a structural error
func IsStructuralError(err error) bool {
	var target *StructuralError
	return errors.As(err, &target)
}

// IsDocumentError checks if an error is or wraps a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}

// IsHostError checks if an error is or wraps a host error
func IsHostError(err error) bool {
	var target *HostError
	return errors.As(err, &target)
}

// IsRangeError checks if an error is or wraps a range error
func IsRangeError(err error) bool {
	var target *RangeError
	return errors.As(err, &target)
}

// IsConfigError checks if an error is or wraps a config error
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}
