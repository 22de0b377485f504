package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

// guestSelect joins display names; users without a profile row show their ID.
const guestSelect = `
	SELECT g.gathering_id, g.user_id, COALESCE(u.display_name, g.user_id),
	       g.expenses, g.remarks, g.arriving_status, g.joined_at
	FROM guests g
	LEFT JOIN users u ON u.id = g.user_id
`

// GetGuest retrieves one guest of a gathering.
func (s *SQLiteStore) GetGuest(ctx context.Context, gatheringID, userID string) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx,
		guestSelect+`WHERE g.gathering_id = ? AND g.user_id = ?`,
		gatheringID, userID,
	)
	guest, err := scanGuest(row)
	if err == sql.ErrNoRows {
		return nil, guestNotFound(gatheringID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return guest, nil
}

// ListGuests retrieves every guest of a gathering ordered by join time.
func (s *SQLiteStore) ListGuests(ctx context.Context, gatheringID string) ([]*models.Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		guestSelect+`WHERE g.gathering_id = ? ORDER BY g.joined_at, g.user_id`,
		gatheringID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	var guests []*models.Guest
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guests: %w", err)
	}

	return guests, nil
}

// AddGuest inserts a guest row with a zero balance.
func (s *SQLiteStore) AddGuest(ctx context.Context, guest *models.Guest) error {
	if guest.JoinedAt == 0 {
		guest.JoinedAt = time.Now().Unix()
	}
	if guest.ArrivingStatus == "" {
		guest.ArrivingStatus = models.DefaultArrivingStatus
	}
	guest.Expenses = decimal.Zero

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM guests WHERE gathering_id = ? AND user_id = ?",
		guest.GatheringID, guest.UserID,
	).Scan(&exists)
	if err == nil {
		return fmt.Errorf("guest %s in gathering %s: %w", guest.UserID, guest.GatheringID, storage.ErrConflict)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check guest existence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO guests (gathering_id, user_id, expenses, remarks, arriving_status, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		guest.GatheringID, guest.UserID, guest.Expenses.String(), nullableString(guest.Remarks),
		string(guest.ArrivingStatus), guest.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert guest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveGuest deletes a guest row.
func (s *SQLiteStore) RemoveGuest(ctx context.Context, gatheringID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM guests WHERE gathering_id = ? AND user_id = ?",
		gatheringID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	return expectOneRow(result, gatheringID, userID)
}

// IncrementGuestBalance adds delta to a guest's balance in its own transaction.
func (s *SQLiteStore) IncrementGuestBalance(ctx context.Context, gatheringID, userID string, delta decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := applyDelta(ctx, tx, gatheringID, userID, delta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateGuestStatus overwrites a guest's arriving status.
func (s *SQLiteStore) UpdateGuestStatus(ctx context.Context, gatheringID, userID string, status models.ArrivingStatus) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE guests SET arriving_status = ? WHERE gathering_id = ? AND user_id = ?",
		string(status), gatheringID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update arriving status: %w", err)
	}
	return expectOneRow(result, gatheringID, userID)
}

// UpdateGuestRemarks overwrites a guest's remarks; nil or "" stores NULL.
func (s *SQLiteStore) UpdateGuestRemarks(ctx context.Context, gatheringID, userID string, remarks *string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE guests SET remarks = ? WHERE gathering_id = ? AND user_id = ?",
		nullableString(remarks), gatheringID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update remarks: %w", err)
	}
	return expectOneRow(result, gatheringID, userID)
}

// applyDelta adds delta to one balance inside tx. The transaction holds the
// write lock (see dsnOptions), so the read and the write see the same row.
func applyDelta(ctx context.Context, tx *sql.Tx, gatheringID, userID string, delta decimal.Decimal) error {
	var current decimal.Decimal
	err := tx.QueryRowContext(ctx,
		"SELECT expenses FROM guests WHERE gathering_id = ? AND user_id = ?",
		gatheringID, userID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return guestNotFound(gatheringID, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE guests SET expenses = ? WHERE gathering_id = ? AND user_id = ?",
		current.Add(delta).String(), gatheringID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}
	return nil
}

func scanGuest(row rowScanner) (*models.Guest, error) {
	guest := &models.Guest{}
	var (
		remarks sql.NullString
		status  string
	)
	err := row.Scan(&guest.GatheringID, &guest.UserID, &guest.DisplayName,
		&guest.Expenses, &remarks, &status, &guest.JoinedAt)
	if err != nil {
		return nil, err
	}
	if remarks.Valid {
		guest.Remarks = &remarks.String
	}
	guest.ArrivingStatus = models.ArrivingStatus(status)
	return guest, nil
}

func expectOneRow(result sql.Result, gatheringID, userID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return guestNotFound(gatheringID, userID)
	}
	return nil
}

func guestNotFound(gatheringID, userID string) error {
	return fmt.Errorf("guest %s in gathering %s: %w", userID, gatheringID, storage.ErrNotFound)
}
