package models

import "github.com/shopspring/decimal"

// Settlement records a payment from one guest to another that clears debt.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GatheringID is the gathering whose balances the payment settles.
	GatheringID string

	// FromUserID is the guest who paid (debtor settling up).
	FromUserID string

	// ToUserID is the guest who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount, always positive.
	Amount decimal.Decimal

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
