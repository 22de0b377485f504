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

// WriteExpense persists an expense and applies every adjustment in a single
// transaction. If any guest row cannot be updated nothing is committed and the
// returned error is a *storage.BalanceUpdateError naming that guest.
func (s *SQLiteStore) WriteExpense(ctx context.Context, expense *models.Expense, adjustments []models.Adjustment) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var note any
	if expense.Note != "" {
		note = expense.Note
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, gathering_id, payer_id, amount, share, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GatheringID, expense.PayerID,
		expense.Amount.String(), expense.Share.String(), note, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, consumerID := range expense.ConsumerIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_consumers (expense_id, user_id) VALUES (?, ?)",
			expense.ID, consumerID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense consumer: %w", err)
		}
	}

	for _, adj := range adjustments {
		if err := applyDelta(ctx, tx, expense.GatheringID, adj.UserID, adj.Delta); err != nil {
			return &storage.BalanceUpdateError{
				GatheringID: expense.GatheringID,
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

// ListExpenses retrieves all expenses of a gathering, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, gatheringID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, gathering_id, payer_id, amount, share, note, created_at
		 FROM expenses WHERE gathering_id = ? ORDER BY created_at DESC, rowid DESC`,
		gatheringID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense := &models.Expense{}
		var note sql.NullString
		if err := rows.Scan(&expense.ID, &expense.GatheringID, &expense.PayerID,
			&expense.Amount, &expense.Share, &note, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if note.Valid {
			expense.Note = note.String
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	consumerRows, err := s.db.QueryContext(ctx,
		`SELECT c.expense_id, c.user_id
		 FROM expense_consumers c
		 JOIN expenses e ON e.id = c.expense_id
		 WHERE e.gathering_id = ?
		 ORDER BY c.user_id`,
		gatheringID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense consumers: %w", err)
	}
	defer consumerRows.Close()

	for consumerRows.Next() {
		var expenseID, userID string
		if err := consumerRows.Scan(&expenseID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan expense consumer: %w", err)
		}
		if expense, ok := byID[expenseID]; ok {
			expense.ConsumerIDs = append(expense.ConsumerIDs, userID)
		}
	}
	if err := consumerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense consumers: %w", err)
	}

	return expenses, nil
}
