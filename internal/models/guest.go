package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ArrivingStatus is a guest's announced arrival.
type ArrivingStatus string

const (
	StatusSoon   ArrivingStatus = "Soon"
	StatusOnTime ArrivingStatus = "On time"
	StatusLate   ArrivingStatus = "Late"
)

// DefaultArrivingStatus is assigned when a guest joins without choosing one.
const DefaultArrivingStatus = StatusOnTime

// ArrivingStatuses lists the accepted statuses in display order.
var ArrivingStatuses = []ArrivingStatus{StatusSoon, StatusOnTime, StatusLate}

// Valid reports whether s is one of the accepted statuses.
func (s ArrivingStatus) Valid() bool {
	for _, v := range ArrivingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseArrivingStatus validates a raw status value.
// Matching is exact; "on time" is not "On time".
func ParseArrivingStatus(raw string) (ArrivingStatus, error) {
	s := ArrivingStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown arriving status %q", raw)
	}
	return s, nil
}

// Guest represents one user's participation in one gathering.
type Guest struct {
	// GatheringID and UserID together identify the guest.
	GatheringID string
	UserID      string

	// DisplayName is joined from the users table on reads.
	// Falls back to UserID when the user has no profile row.
	DisplayName string

	// Expenses is the signed running balance.
	// Positive = this guest is owed money, negative = this guest owes money.
	Expenses decimal.Decimal

	// Remarks is a free-text note; nil when cleared.
	Remarks *string

	// ArrivingStatus is one of Soon, On time, Late.
	ArrivingStatus ArrivingStatus

	// JoinedAt is the Unix timestamp when the guest joined.
	JoinedAt int64
}
