// ABOUTME: Goal model with an optional description and target date.
package models

import "time"

// Goal is something a user is working towards.
type Goal struct {
	ID          string `json:"_id"`
	GoalName    string `json:"goalName"`
	Description string `json:"description,omitempty"`
	TargetDate  *Date  `json:"targetDate,omitempty"`
	UserID      string `json:"userId"`
}

// RecordID implements Record.
func (g Goal) RecordID() string { return g.ID }

// GoalInput is the body of a log-goal request.
type GoalInput struct {
	GoalName    *string `json:"goalName"`
	Description *string `json:"description"`
	TargetDate  *Date   `json:"targetDate"`
	UserID      *string `json:"userId"`
}

// Validate implements Input.
func (in GoalInput) Validate() error {
	var c checker
	c.requireString("goalName", in.GoalName)
	c.requireString("userId", in.UserID)
	return c.err()
}

// Build implements Input.
func (in GoalInput) Build(id string, _ time.Time) Goal {
	g := Goal{
		ID:          id,
		GoalName:    deref(in.GoalName),
		Description: deref(in.Description),
		UserID:      deref(in.UserID),
	}
	if in.TargetDate != nil && !in.TargetDate.IsZero() {
		td := *in.TargetDate
		g.TargetDate = &td
	}
	return g
}
