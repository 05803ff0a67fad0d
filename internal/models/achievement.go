// ABOUTME: Achievement model for milestones a user has reached.
package models

import "time"

// Achievement is a milestone reached on a date.
type Achievement struct {
	ID              string `json:"_id"`
	AchievementName string `json:"achievementName"`
	DateAchieved    Date   `json:"dateAchieved"`
	UserID          string `json:"userId"`
}

// RecordID implements Record.
func (a Achievement) RecordID() string { return a.ID }

// AchievementInput is the body of a log-achievement request.
type AchievementInput struct {
	AchievementName *string `json:"achievementName"`
	DateAchieved    *Date   `json:"dateAchieved"`
	UserID          *string `json:"userId"`
}

// Validate implements Input.
func (in AchievementInput) Validate() error {
	var c checker
	c.requireString("achievementName", in.AchievementName)
	c.requireString("userId", in.UserID)
	return c.err()
}

// Build implements Input.
func (in AchievementInput) Build(id string, now time.Time) Achievement {
	return Achievement{
		ID:              id,
		AchievementName: deref(in.AchievementName),
		DateAchieved:    dateOr(in.DateAchieved, now),
		UserID:          deref(in.UserID),
	}
}
