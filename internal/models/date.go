// ABOUTME: Date type shared by all records with JSON round-tripping.
// ABOUTME: Renders ISO-8601 UTC with milliseconds and accepts several input layouts.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches the millisecond UTC form clients already consume.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Date wraps time.Time with the record wire format.
type Date struct {
	time.Time
}

// NewDate returns a Date for t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses s using the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// String renders the date in wire format, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(isoLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
