// ABOUTME: Error taxonomy returned by record services.
// ABOUTME: Callers map these onto transport responses with errors.As.
package records

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/fitlog/internal/models"
)

// ValidationError lists every input field that failed validation.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error { return e.Fields }

// NotFoundError carries the user-facing message for a missing record.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// CascadeError reports dependent collections that could not be cleared
// after their user was deleted. The user itself is already gone.
type CascadeError struct {
	UserID   string
	Failures map[string]error
	// Err combines the individual failures.
	Err error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete for %s incomplete in %s: %v",
		e.UserID, strings.Join(e.Collections(), ", "), e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// Collections returns the failed collection names, sorted.
func (e *CascadeError) Collections() []string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
