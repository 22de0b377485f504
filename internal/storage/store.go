// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is wrapped when an insert collides with an existing row.
	ErrConflict = errors.New("already exists")
)

// BalanceUpdateError names the guest whose balance row could not be updated
// inside a multi-row write.
type BalanceUpdateError struct {
	GatheringID string
	UserID      string
	Err         error
}

func (e *BalanceUpdateError) Error() string {
	return fmt.Sprintf("failed to update balance of guest %s in gathering %s: %v", e.UserID, e.GatheringID, e.Err)
}

func (e *BalanceUpdateError) Unwrap() error { return e.Err }

// GuestStore defines the per-guest operations the ledger depends on.
// Rows are keyed by (gatheringID, userID).
type GuestStore interface {
	// GetGuest retrieves one guest. Returns an error wrapping ErrNotFound if absent.
	GetGuest(ctx context.Context, gatheringID, userID string) (*models.Guest, error)

	// ListGuests returns every guest of a gathering joined with display names.
	ListGuests(ctx context.Context, gatheringID string) ([]*models.Guest, error)

	// IncrementGuestBalance adds delta to the stored balance without the caller
	// reading it first.
	IncrementGuestBalance(ctx context.Context, gatheringID, userID string, delta decimal.Decimal) error

	// UpdateGuestStatus overwrites the arriving status.
	UpdateGuestStatus(ctx context.Context, gatheringID, userID string, status models.ArrivingStatus) error

	// UpdateGuestRemarks overwrites remarks; nil clears them.
	UpdateGuestRemarks(ctx context.Context, gatheringID, userID string, remarks *string) error
}

// ExpenseWriter is implemented by stores that can persist an expense together
// with all of its balance adjustments in one transaction. Either everything is
// applied or nothing is.
type ExpenseWriter interface {
	WriteExpense(ctx context.Context, expense *models.Expense, adjustments []models.Adjustment) error
}

// SettlementWriter is implemented by stores that can persist a settlement
// together with both balance adjustments in one transaction.
type SettlementWriter interface {
	WriteSettlement(ctx context.Context, settlement *models.Settlement, adjustments []models.Adjustment) error
}

// RosterStore adds the membership operations used to join and leave gatherings.
type RosterStore interface {
	GuestStore

	// GetGathering retrieves a gathering by ID. Returns an error wrapping ErrNotFound if absent.
	GetGathering(ctx context.Context, gatheringID string) (*models.Gathering, error)

	// AddGuest inserts a guest row. Returns an error wrapping ErrConflict if the
	// user already joined.
	AddGuest(ctx context.Context, guest *models.Guest) error

	// RemoveGuest deletes a guest row. Returns an error wrapping ErrNotFound if absent.
	RemoveGuest(ctx context.Context, gatheringID, userID string) error

	// UpsertUser creates the user or refreshes its display name.
	UpsertUser(ctx context.Context, user *models.User) error
}

// Store defines the full set of operations the service layer needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	RosterStore
	ExpenseWriter
	SettlementWriter

	// CreateGathering persists a new gathering. ID and CreatedAt are populated
	// by the store when empty.
	CreateGathering(ctx context.Context, gathering *models.Gathering) error

	// ListGatheringsByCoven returns a coven's gatherings, newest first.
	ListGatheringsByCoven(ctx context.Context, covenID string) ([]*models.Gathering, error)

	// UpdateGathering overwrites the name, date, time, location and cost of an
	// existing gathering. Returns an error wrapping ErrNotFound if absent.
	UpdateGathering(ctx context.Context, gathering *models.Gathering) error

	// DeleteGathering removes a gathering with its guests and expenses.
	DeleteGathering(ctx context.Context, gatheringID string) error

	// ListExpenses returns a gathering's expenses, newest first.
	ListExpenses(ctx context.Context, gatheringID string) ([]*models.Expense, error)

	// ListSettlements returns a gathering's settlements, newest first.
	ListSettlements(ctx context.Context, gatheringID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
