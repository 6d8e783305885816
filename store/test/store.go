package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/umbralith/userpulse/internal/profile"
	"github.com/umbralith/userpulse/internal/version"
	"github.com/umbralith/userpulse/store"
	"github.com/umbralith/userpulse/store/db"
)

// NewTestingStore creates a migrated store backed by a throwaway SQLite
// database. Set USERPULSE_TEST_DRIVER=postgres and USERPULSE_TEST_DSN to
// run the same suite against PostgreSQL.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStoreWithMode(ctx, t, "dev")
}

func newTestingStoreWithMode(ctx context.Context, t *testing.T, mode string) *store.Store {
	testProfile := getTestingProfile(t, mode)
	dbDriver, err := db.NewDBDriver(testProfile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	st := store.New(dbDriver, testProfile)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return st
}

func getDriverFromEnv() string {
	driver := os.Getenv("USERPULSE_TEST_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

func getTestingProfile(t *testing.T, mode string) *profile.Profile {
	driver := getDriverFromEnv()
	dsn := os.Getenv("USERPULSE_TEST_DSN")

	dir := t.TempDir()
	if driver == "sqlite" {
		dsn = filepath.Join(dir, fmt.Sprintf("userpulse_%s.db", mode))
	}

	return &profile.Profile{
		Mode:    mode,
		Driver:  driver,
		Data:    dir,
		DSN:     dsn,
		Version: version.GetCurrentVersion(mode),
	}
}
