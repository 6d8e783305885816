package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/umbralith/userpulse/store"
)

func (d *DB) GetSystemSetting(ctx context.Context, find *store.FindSystemSetting) (*store.SystemSetting, error) {
	if find == nil || find.Name == "" {
		return nil, fmt.Errorf("find parameter must name a setting")
	}

	setting := &store.SystemSetting{}
	stmt := `SELECT name, value FROM system_setting WHERE name = $1`
	if err := d.db.QueryRowContext(ctx, stmt, find.Name).Scan(&setting.Name, &setting.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get system_setting: %w", err)
	}

	return setting, nil
}

func (d *DB) UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error) {
	stmt := `INSERT INTO system_setting (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value); err != nil {
		return nil, fmt.Errorf("failed to upsert system_setting: %w", err)
	}

	return upsert, nil
}
