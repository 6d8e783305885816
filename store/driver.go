package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	TableExists(ctx context.Context, tableName string) (bool, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error)
	DeleteInteraction(ctx context.Context, delete *DeleteInteraction) error

	// LearningEvent model related methods.
	CreateLearningEvent(ctx context.Context, create *LearningEvent) (*LearningEvent, error)
	ListLearningEvents(ctx context.Context, find *FindLearningEvent) ([]*LearningEvent, error)
	DeleteLearningEvent(ctx context.Context, delete *DeleteLearningEvent) error

	// SystemSetting model related methods.
	GetSystemSetting(ctx context.Context, find *FindSystemSetting) (*SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
}
