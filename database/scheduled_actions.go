package database

import (
	"context"
	"fmt"
	"time"

	"originality-bot/models"
)

// InsertScheduledAction persists a delayed action and returns its id.
func (s *Store) InsertScheduledAction(ctx context.Context, a models.ScheduledAction) (int64, error) {
	query := `INSERT INTO scheduled_actions (due_at, action, arguments) VALUES (?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, a.DueAt.UnixMilli(), a.Action, a.Arguments)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scheduled action %s: %w", a.Action, err)
	}
	return res.LastInsertId()
}

// DueScheduledActions lists actions due at or before now, earliest first.
func (s *Store) DueScheduledActions(ctx context.Context, now time.Time) ([]models.ScheduledAction, error) {
	query := `SELECT id, due_at, action, arguments FROM scheduled_actions
              WHERE due_at <= ? ORDER BY due_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query due actions: %w", err)
	}
	defer rows.Close()

	var actions []models.ScheduledAction
	for rows.Next() {
		var a models.ScheduledAction
		var dueAt int64
		if err := rows.Scan(&a.ID, &dueAt, &a.Action, &a.Arguments); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled action: %w", err)
		}
		a.DueAt = time.UnixMilli(dueAt)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during scheduled action rows iteration: %w", err)
	}
	return actions, nil
}

// DeleteScheduledAction removes an action. It reports false when another sweep
// already claimed the row.
func (s *Store) DeleteScheduledAction(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_actions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete scheduled action %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
