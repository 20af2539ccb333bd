package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitkaro/server/internal/models"
)

// CreateSettlement appends a settlement record. Settlements are immutable:
// the store has no update or delete for them, they are the audit trail.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = time.Now().Unix()
	}

	var method, notes interface{}
	if settlement.Method != "" {
		method = settlement.Method
	}
	if settlement.Notes != "" {
		notes = settlement.Notes
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, method, notes, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, method, notes, settlement.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, method, notes, settled_at
		 FROM settlements WHERE group_id = ? ORDER BY settled_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var method, notes sql.NullString

		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID,
			&settlement.ToUserID, &settlement.Amount, &method, &notes, &settlement.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		if method.Valid {
			settlement.Method = method.String
		}
		if notes.Valid {
			settlement.Notes = notes.String
		}

		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
