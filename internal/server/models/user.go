// Package models defines server-side rows that never leave the server.
package models

import "time"

// User is an identity known to the server. ExternalID is set for users
// that signed in with a custom token; anonymous users have none.
type User struct {
	ID         string
	ExternalID *string
	Anonymous  bool
	CreatedAt  time.Time
}

// RefreshToken is an opaque rotation token bound to a user.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}
