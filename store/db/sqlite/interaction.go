package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/umbralith/userpulse/store"
)

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	fields := []string{"uid", "user_id", "interaction_type", "agent_name", "input_text", "output_text", "satisfaction_score", "feedback", "metadata", "created_ts"}

	if create.Metadata == "" {
		create.Metadata = "{}"
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	args := []any{
		create.UID,
		create.UserID,
		create.Kind,
		create.AgentName,
		create.InputText,
		create.OutputText,
		create.SatisfactionScore,
		create.Feedback,
		create.Metadata,
		create.CreatedTs,
	}

	stmt := `INSERT INTO user_interaction (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create user_interaction: %w", err)
	}

	return create, nil
}

func (d *DB) ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error) {
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
	if find.AgentName != nil {
		where, args = append(where, "agent_name = "+placeholder(len(args)+1)), append(args, *find.AgentName)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts > "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT id, uid, user_id, interaction_type, agent_name, input_text, output_text, satisfaction_score, feedback, metadata, created_ts
		FROM user_interaction WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`

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
		return nil, fmt.Errorf("failed to list user_interactions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Interaction, 0)
	for rows.Next() {
		interaction := &store.Interaction{}
		var satisfactionScore sql.NullFloat64
		var feedback sql.NullString
		if err := rows.Scan(
			&interaction.ID,
			&interaction.UID,
			&interaction.UserID,
			&interaction.Kind,
			&interaction.AgentName,
			&interaction.InputText,
			&interaction.OutputText,
			&satisfactionScore,
			&feedback,
			&interaction.Metadata,
			&interaction.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user_interaction: %w", err)
		}
		if satisfactionScore.Valid {
			interaction.SatisfactionScore = &satisfactionScore.Float64
		}
		if feedback.Valid {
			interaction.Feedback = &feedback.String
		}
		list = append(list, interaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user_interactions: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteInteraction(ctx context.Context, delete *store.DeleteInteraction) error {
	if delete == nil {
		return fmt.Errorf("delete parameter cannot be nil")
	}

	where, args := []string{}, []any{}

	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *delete.UID)
	}
	if delete.CreatedTsBefore != nil {
		where, args = append(where, "created_ts < "+placeholder(len(args)+1)), append(args, *delete.CreatedTsBefore)
	}

	if len(where) == 0 {
		return fmt.Errorf("no condition to delete user_interaction")
	}

	stmt := `DELETE FROM user_interaction WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete user_interaction: %w", err)
	}

	return nil
}
