package store

import (
	"context"

	"github.com/umbralith/userpulse/internal/profile"
)

// Mirror table names, shared with the capability probe.
const (
	TableInteraction   = "user_interaction"
	TableLearningEvent = "user_learning"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.GetDB().PingContext(ctx)
}

// TableExists reports whether the named table is present in the connected
// database. Used by the mirror capability probe.
func (s *Store) TableExists(ctx context.Context, tableName string) (bool, error) {
	return s.driver.TableExists(ctx, tableName)
}

func (s *Store) CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

func (s *Store) ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error) {
	return s.driver.ListInteractions(ctx, find)
}

func (s *Store) DeleteInteraction(ctx context.Context, delete *DeleteInteraction) error {
	return s.driver.DeleteInteraction(ctx, delete)
}

func (s *Store) CreateLearningEvent(ctx context.Context, create *LearningEvent) (*LearningEvent, error) {
	return s.driver.CreateLearningEvent(ctx, create)
}

func (s *Store) ListLearningEvents(ctx context.Context, find *FindLearningEvent) ([]*LearningEvent, error) {
	return s.driver.ListLearningEvents(ctx, find)
}

func (s *Store) DeleteLearningEvent(ctx context.Context, delete *DeleteLearningEvent) error {
	return s.driver.DeleteLearningEvent(ctx, delete)
}

func (s *Store) GetSystemSetting(ctx context.Context, find *FindSystemSetting) (*SystemSetting, error) {
	return s.driver.GetSystemSetting(ctx, find)
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}
