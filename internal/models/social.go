// ABOUTME: SocialPost model; posts reference their user through authorId.
package models

import "time"

// SocialPost is a short text post shared by a user.
type SocialPost struct {
	ID         string `json:"_id"`
	PostText   string `json:"postText"`
	AuthorID   string `json:"authorId"`
	DatePosted Date   `json:"datePosted"`
}

// RecordID implements Record.
func (p SocialPost) RecordID() string { return p.ID }

// SocialPostInput is the body of a log-social-post request.
type SocialPostInput struct {
	PostText   *string `json:"postText"`
	AuthorID   *string `json:"authorId"`
	DatePosted *Date   `json:"datePosted"`
}

// Validate implements Input.
func (in SocialPostInput) Validate() error {
	var c checker
	c.requireString("postText", in.PostText)
	c.requireString("authorId", in.AuthorID)
	return c.err()
}

// Build implements Input.
func (in SocialPostInput) Build(id string, now time.Time) SocialPost {
	return SocialPost{
		ID:         id,
		PostText:   deref(in.PostText),
		AuthorID:   deref(in.AuthorID),
		DatePosted: dateOr(in.DatePosted, now),
	}
}
