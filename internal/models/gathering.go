package models

import "github.com/shopspring/decimal"

// Gathering represents a scheduled meetup of a coven.
// It anchors guests and expenses; deleting it deletes both.
type Gathering struct {
	// ID is the unique identifier for the gathering (UUID format).
	ID string

	// CovenID is the coven this gathering belongs to.
	CovenID string

	// Name is the display name (e.g., "Full Moon Picnic").
	Name string

	// Date and Time are kept as entered by the creator ("2026-10-31", "20:00").
	Date string
	Time string

	// Location is a free-text place name.
	Location string

	// Cost is the announced per-person cost, zero when free.
	Cost decimal.Decimal

	// CreatedBy is the user ID of the creator. Only the creator may delete it.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the gathering was created.
	CreatedAt int64
}
