package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/coven/internal/models"
	"github.com/mmynk/coven/internal/storage"
)

// WriteSettlement persists a settlement and applies its adjustments in a
// single transaction. A guest row that cannot be updated is reported as a
// *storage.BalanceUpdateError and nothing is committed.
func (s *SQLiteStore) WriteSettlement(ctx context.Context, settlement *models.Settlement, adjustments []models.Adjustment) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, gathering_id, from_user_id, to_user_id, amount, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GatheringID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.String(), note, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for _, adj := range adjustments {
		if err := applyDelta(ctx, tx, settlement.GatheringID, adj.UserID, adj.Delta); err != nil {
			return &storage.BalanceUpdateError{
				GatheringID: settlement.GatheringID,
				UserID:      adj.UserID,
				Err:         err,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlements retrieves all settlements of a gathering, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, gatheringID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, gathering_id, from_user_id, to_user_id, amount, note, created_at
		 FROM settlements WHERE gathering_id = ? ORDER BY created_at DESC, rowid DESC`,
		gatheringID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []*models.Settlement{}
	for rows.Next() {
		settlement := &models.Settlement{}
		var note sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.GatheringID, &settlement.FromUserID, &settlement.ToUserID,
			&settlement.Amount, &note, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if note.Valid {
			settlement.Note = note.String
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
