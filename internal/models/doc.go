// Package models defines the core domain models for Coven.
//
// # Models
//
//   - Gathering: a scheduled meetup owned by a coven
//   - Guest: one user's participation in one gathering (balance, status, remarks)
//   - User: display information for guests
//   - Expense: a shared cost recorded against a gathering
//   - Adjustment: a staged signed change to one guest's balance
//
// # Money
//
// All amounts are decimal.Decimal values. Balances are stored as decimal text so that
// expense splits stay exact and every split sums to zero.
//
// # Design Principles
//
// 1. **Explicit identity**: guests are keyed by (GatheringID, UserID), no surrogate key
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships
// 3. **No ambient state**: callers pass gathering and user ids into every operation
package models
