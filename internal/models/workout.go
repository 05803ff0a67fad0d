// ABOUTME: Workout model for exercise sessions.
// ABOUTME: Only duration and intensity are required; userId is optional.
package models

import "time"

// Workout represents an exercise session.
type Workout struct {
	ID        string  `json:"_id"`
	Duration  float64 `json:"duration"`
	Intensity string  `json:"intensity"`
	Notes     string  `json:"notes,omitempty"`
	Date      Date    `json:"date"`
	UserID    string  `json:"userId,omitempty"`
}

// RecordID implements Record.
func (w Workout) RecordID() string { return w.ID }

// WorkoutInput is the body of a log-workout request.
type WorkoutInput struct {
	Duration  *float64 `json:"duration"`
	Intensity *string  `json:"intensity"`
	Notes     *string  `json:"notes"`
	Date      *Date    `json:"date"`
	UserID    *string  `json:"userId"`
}

// Validate implements Input.
func (in WorkoutInput) Validate() error {
	var c checker
	c.requireNumber("duration", in.Duration)
	c.requireString("intensity", in.Intensity)
	return c.err()
}

// Build implements Input.
func (in WorkoutInput) Build(id string, now time.Time) Workout {
	return Workout{
		ID:        id,
		Duration:  deref(in.Duration),
		Intensity: deref(in.Intensity),
		Notes:     deref(in.Notes),
		Date:      dateOr(in.Date, now),
		UserID:    deref(in.UserID),
	}
}
