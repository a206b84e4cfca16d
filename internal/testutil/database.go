// Package testutil provides shared test fixtures for receiptwise.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/veranek/receiptwise/internal/service"
	"github.com/veranek/receiptwise/internal/storage"
)

// TestStore wraps a migrated throwaway store scoped to one test.
type TestStore struct {
	Store  service.Store
	UserID string
	t      *testing.T
}

// SetupTestStore creates a file-backed SQLite store in a temp directory,
// runs migrations, seeds the named categories for the default test user,
// and registers cleanup.
func SetupTestStore(t *testing.T, categoryNames ...string) *TestStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	userID := "test-user"
	for _, name := range categoryNames {
		if _, err := store.CreateCategory(ctx, userID, name, "", nil); err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
	}

	return &TestStore{Store: store, UserID: userID, t: t}
}

// MustListCategories returns the current category rows for the test user.
func (ts *TestStore) MustListCategories(ctx context.Context) []string {
	ts.t.Helper()
	cats, err := ts.Store.ListCategories(ctx, ts.UserID)
	if err != nil {
		ts.t.Fatalf("failed to list categories: %v", err)
	}
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, cat.Name)
	}
	return names
}
