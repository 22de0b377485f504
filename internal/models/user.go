package models

import "time"

// User holds the display information shown next to guests.
// Rows are upserted from bearer token claims; credentials live elsewhere.
type User struct {
	// ID is the subject of the caller's bearer token.
	ID string

	// DisplayName is the name shown in guest lists.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user was first seen.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last display name change.
	UpdatedAt int64
}

// NewUser creates a User with timestamps set to now.
func NewUser(id, displayName string) *User {
	now := time.Now().Unix()
	return &User{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
