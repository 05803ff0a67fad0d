// ABOUTME: Field-level validation helpers for record inputs.
// ABOUTME: Collects every failing field instead of stopping at the first.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// FieldErrors is the error returned by Input.Validate.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, fmt.Sprintf("%s %s", e.Field, e.Problem))
	}
	return strings.Join(parts, "; ")
}

type checker struct {
	errs FieldErrors
}

func (c *checker) fail(field, problem string) {
	c.errs = append(c.errs, FieldError{Field: field, Problem: problem})
}

func (c *checker) requireString(field string, v *string) {
	if v == nil || *v == "" {
		c.fail(field, "is required")
	}
}

func (c *checker) requireNumber(field string, v *float64) {
	if v == nil {
		c.fail(field, "is required")
	}
}

func (c *checker) requireDate(field string, v *Date) {
	if v == nil || v.IsZero() {
		c.fail(field, "is required")
	}
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// dateOr returns d, or now when d is unset.
func dateOr(d *Date, now time.Time) Date {
	if d == nil || d.IsZero() {
		return NewDate(now)
	}
	return *d
}
