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

const gatheringColumns = "id, coven_id, name, date, time, location, cost, created_by, created_at"

// CreateGathering persists a new gathering to the database.
func (s *SQLiteStore) CreateGathering(ctx context.Context, gathering *models.Gathering) error {
	if gathering.ID == "" {
		gathering.ID = uuid.New().String()
	}
	if gathering.CreatedAt == 0 {
		gathering.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gatherings (`+gatheringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gathering.ID, gathering.CovenID, gathering.Name, gathering.Date, gathering.Time,
		gathering.Location, gathering.Cost.String(), gathering.CreatedBy, gathering.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert gathering: %w", err)
	}

	return nil
}

// GetGathering retrieves a gathering by ID.
func (s *SQLiteStore) GetGathering(ctx context.Context, gatheringID string) (*models.Gathering, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gatheringColumns+` FROM gatherings WHERE id = ?`,
		gatheringID,
	)
	gathering, err := scanGathering(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("gathering %s: %w", gatheringID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gathering: %w", err)
	}
	return gathering, nil
}

// ListGatheringsByCoven retrieves all gatherings of a coven, newest first.
func (s *SQLiteStore) ListGatheringsByCoven(ctx context.Context, covenID string) ([]*models.Gathering, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gatheringColumns+` FROM gatherings WHERE coven_id = ? ORDER BY created_at DESC, rowid DESC`,
		covenID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list gatherings by coven: %w", err)
	}
	defer rows.Close()

	var gatherings []*models.Gathering
	for rows.Next() {
		gathering, err := scanGathering(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gathering: %w", err)
		}
		gatherings = append(gatherings, gathering)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gatherings: %w", err)
	}

	return gatherings, nil
}

// UpdateGathering overwrites the editable fields of an existing gathering.
// ID, coven, creator and creation time are left as stored.
func (s *SQLiteStore) UpdateGathering(ctx context.Context, gathering *models.Gathering) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE gatherings SET name = ?, date = ?, time = ?, location = ?, cost = ? WHERE id = ?`,
		gathering.Name, gathering.Date, gathering.Time, gathering.Location, gathering.Cost.String(), gathering.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update gathering: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated gathering: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("gathering %s: %w", gathering.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGathering removes a gathering by ID. Guests and expenses cascade.
func (s *SQLiteStore) DeleteGathering(ctx context.Context, gatheringID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM gatherings WHERE id = ?", gatheringID)
	if err != nil {
		return fmt.Errorf("failed to delete gathering: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted gathering: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("gathering %s: %w", gatheringID, storage.ErrNotFound)
	}
	return nil
}

func scanGathering(row rowScanner) (*models.Gathering, error) {
	g := &models.Gathering{}
	err := row.Scan(&g.ID, &g.CovenID, &g.Name, &g.Date, &g.Time, &g.Location, &g.Cost, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}
