package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/umbralith/userpulse/store"
)

func (d *DB) CreateLearningEvent(ctx context.Context, create *store.LearningEvent) (*store.LearningEvent, error) {
	fields := []string{"uid", "user_id", "feedback", "satisfaction_score", "improvement_signals", "created_ts"}

	if create.ImprovementSignals == "" {
		create.ImprovementSignals = "{}"
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	args := []any{
		create.UID,
		create.UserID,
		create.Feedback,
		create.SatisfactionScore,
		create.ImprovementSignals,
		create.CreatedTs,
	}

	stmt := `INSERT INTO user_learning (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create user_learning: %w", err)
	}

	return create, nil
}

func (d *DB) ListLearningEvents(ctx context.Context, find *store.FindLearningEvent) ([]*store.LearningEvent, error) {
	if find == nil {
		return nil, fmt.Errorf("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts > "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT id, uid, user_id, feedback, satisfaction_score, improvement_signals, created_ts
		FROM user_learning WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`

	limit := find.Limit
	if limit > 0 {
		if limit > 1000 {
			limit = 1000
		}
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if find.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", find.Offset)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user_learning events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.LearningEvent, 0)
	for rows.Next() {
		event := &store.LearningEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.UID,
			&event.UserID,
			&event.Feedback,
			&event.SatisfactionScore,
			&event.ImprovementSignals,
			&event.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user_learning: %w", err)
		}
		list = append(list, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user_learning events: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteLearningEvent(ctx context.Context, delete *store.DeleteLearningEvent) error {
	if delete == nil {
		return fmt.Errorf("delete parameter cannot be nil")
	}

	where, args := []string{}, []any{}

	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.CreatedTsBefore != nil {
		where, args = append(where, "created_ts < "+placeholder(len(args)+1)), append(args, *delete.CreatedTsBefore)
	}

	if len(where) == 0 {
		return fmt.Errorf("no condition to delete user_learning")
	}

	stmt := `DELETE FROM user_learning WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete user_learning: %w", err)
	}

	return nil
}
