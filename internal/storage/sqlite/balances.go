package sqlite

import (
	"context"
	"fmt"
)

// GroupBalances retrieves the stored balance snapshot for a group. A group
// with no ledger entries yields an empty map.
func (s *SQLiteStore) GroupBalances(ctx context.Context, groupID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, balance FROM balances WHERE group_id = ?",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var memberID string
		var balance int64
		if err := rows.Scan(&memberID, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[memberID] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return balances, nil
}

// ReplaceGroupBalances atomically replaces a group's balance snapshot. The
// snapshot is replaced wholesale rather than incremented in place: either the
// new snapshot lands completely or the previous one survives untouched.
func (s *SQLiteStore) ReplaceGroupBalances(ctx context.Context, groupID string, balances map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear balances: %w", err)
	}

	for memberID, balance := range balances {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO balances (group_id, member_id, balance) VALUES (?, ?, ?)",
			groupID, memberID, balance,
		)
		if err != nil {
			return fmt.Errorf("failed to insert balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
