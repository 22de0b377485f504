package models

import "github.com/shopspring/decimal"

// Expense is a shared cost paid by one guest and consumed by a set of guests.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GatheringID is the gathering the expense belongs to.
	GatheringID string

	// PayerID is the guest who paid the full amount.
	PayerID string

	// Amount is the total paid, always positive.
	Amount decimal.Decimal

	// Share is the nominal per-consumer share (Amount / len(ConsumerIDs)).
	// Individual adjustments may differ from it by remainder units.
	Share decimal.Decimal

	// ConsumerIDs are the guests splitting the cost, sorted.
	// The payer may or may not be among them.
	ConsumerIDs []string

	// Note is an optional description ("Pizza", "Train tickets").
	Note string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Adjustment is a signed change to one guest's balance.
type Adjustment struct {
	UserID string
	Delta  decimal.Decimal
}

// Transfer is a suggested payment that moves a debtor toward zero.
type Transfer struct {
	From   string // guest who owes
	To     string // guest who is owed
	Amount decimal.Decimal
}
