// ABOUTME: User model, the owner of every other record kind.
// ABOUTME: Passwords are stored exactly as supplied.
package models

import "time"

// User is a registered account.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RecordID implements Record.
func (u User) RecordID() string { return u.ID }

// UserInput is the body of a registration request.
type UserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Validate implements Input.
func (in UserInput) Validate() error {
	var c checker
	c.requireString("username", in.Username)
	c.requireString("email", in.Email)
	c.requireString("password", in.Password)
	return c.err()
}

// Build implements Input.
func (in UserInput) Build(id string, _ time.Time) User {
	return User{
		ID:       id,
		Username: deref(in.Username),
		Email:    deref(in.Email),
		Password: deref(in.Password),
	}
}
