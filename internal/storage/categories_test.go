package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranek/receiptwise/internal/common"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err, "failed to create store")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateCategory_CaseInsensitiveUniqueness(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		create   string
		wantErr  error
	}{
		{
			name:     "exact duplicate rejected",
			existing: []string{"Food"},
			create:   "Food",
			wantErr:  common.ErrDuplicateCategory,
		},
		{
			name:     "lowercase duplicate rejected",
			existing: []string{"Food"},
			create:   "food",
			wantErr:  common.ErrDuplicateCategory,
		},
		{
			name:     "whitespace-padded duplicate rejected",
			existing: []string{"Food"},
			create:   "  FOOD  ",
			wantErr:  common.ErrDuplicateCategory,
		},
		{
			name:     "distinct name succeeds",
			existing: []string{"Food"},
			create:   "Food2",
		},
		{
			name:   "first category succeeds",
			create: "Grocery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStore(t)
			ctx := context.Background()

			for _, name := range tt.existing {
				_, err := store.CreateCategory(ctx, "user1", name, "", nil)
				require.NoError(t, err)
			}

			cat, err := store.CreateCategory(ctx, "user1", tt.create, "", nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cat.ID)
			// Canonical name is trimmed but keeps its original casing.
			assert.Equal(t, strings.TrimSpace(tt.create), cat.Name)
		})
	}
}

func TestCreateCategory_PreservesCanonicalCasing(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "user1", "  Dining Out  ", "#FF6B6B", nil)
	require.NoError(t, err)
	assert.Equal(t, "Dining Out", cat.Name)

	got, err := store.GetCategoryByName(ctx, "user1", "Dining Out")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dining Out", got.Name)
	assert.Equal(t, "#FF6B6B", got.Color)

	// Exact-match lookups do not fold case.
	got, err = store.GetCategoryByName(ctx, "user1", "dining out")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateCategory_ScopedPerUser(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "user1", "Food", "", nil)
	require.NoError(t, err)

	// A different user scope may reuse the name.
	_, err = store.CreateCategory(ctx, "user2", "food", "", nil)
	require.NoError(t, err)

	cats, err := store.ListCategories(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestCreateCategory_InterleavedDuplicates(t *testing.T) {
	// Two capture surfaces racing to create the same name: the unique
	// index must let exactly one in regardless of interleaving.
	store := createTestStore(t)
	ctx := context.Background()

	names := []string{"Travel", "travel", " TRAVEL ", "Travel"}
	var created, rejected int
	for _, name := range names {
		_, err := store.CreateCategory(ctx, "user1", name, "", nil)
		switch {
		case err == nil:
			created++
		default:
			require.ErrorIs(t, err, common.ErrDuplicateCategory)
			rejected++
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, 3, rejected)
}

func TestRenameCategory(t *testing.T) {
	t.Run("rename to distinct name", func(t *testing.T) {
		store := createTestStore(t)
		ctx := context.Background()

		cat, err := store.CreateCategory(ctx, "user1", "Food", "", nil)
		require.NoError(t, err)

		require.NoError(t, store.RenameCategory(ctx, "user1", cat.ID, "Groceries"))

		got, err := store.GetCategoryByName(ctx, "user1", "Groceries")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, cat.ID, got.ID)
	})

	t.Run("rename onto another name differing only by case is rejected", func(t *testing.T) {
		store := createTestStore(t)
		ctx := context.Background()

		_, err := store.CreateCategory(ctx, "user1", "Food", "", nil)
		require.NoError(t, err)
		cat, err := store.CreateCategory(ctx, "user1", "Travel", "", nil)
		require.NoError(t, err)

		err = store.RenameCategory(ctx, "user1", cat.ID, "food")
		require.ErrorIs(t, err, common.ErrDuplicateCategory)
	})

	t.Run("recasing own name is allowed", func(t *testing.T) {
		store := createTestStore(t)
		ctx := context.Background()

		cat, err := store.CreateCategory(ctx, "user1", "food", "", nil)
		require.NoError(t, err)

		require.NoError(t, store.RenameCategory(ctx, "user1", cat.ID, "Food"))

		got, err := store.GetCategoryByName(ctx, "user1", "Food")
		require.NoError(t, err)
		require.NotNil(t, got)
	})

	t.Run("rename follows into records", func(t *testing.T) {
		store := createTestStore(t)
		ctx := context.Background()

		cat, err := store.CreateCategory(ctx, "user1", "Food", "", nil)
		require.NoError(t, err)
		rec := createTestRecord(t, store, "user1", "Acme", "Food")

		require.NoError(t, store.RenameCategory(ctx, "user1", cat.ID, "Groceries"))

		got, err := store.GetRecord(ctx, "user1", rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Category)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := createTestStore(t)
		err := store.RenameCategory(context.Background(), "user1", "missing", "Anything")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestDeleteCategory_LastCategoryViolation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	misc, err := store.CreateCategory(ctx, "user1", "Misc", "", nil)
	require.NoError(t, err)

	// Sole remaining category cannot be deleted.
	err = store.DeleteCategory(ctx, "user1", misc.ID)
	require.ErrorIs(t, err, common.ErrLastCategory)

	cats, err := store.ListCategories(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	// With two present the delete succeeds.
	food, err := store.CreateCategory(ctx, "user1", "Food", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.DeleteCategory(ctx, "user1", food.ID))

	// Back down to one; the invariant holds again.
	err = store.DeleteCategory(ctx, "user1", misc.ID)
	require.ErrorIs(t, err, common.ErrLastCategory)
}

func TestDeleteCategory_CountIsPerUser(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	mine, err := store.CreateCategory(ctx, "user1", "Misc", "", nil)
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "user2", "Misc", "", nil)
	require.NoError(t, err)

	// The other user's category does not count toward my minimum.
	err = store.DeleteCategory(ctx, "user1", mine.ID)
	require.ErrorIs(t, err, common.ErrLastCategory)
}

func TestEnsureDefaultCategories(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureDefaultCategories(ctx, "user1"))

	cats, err := store.ListCategories(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cats, 6)

	// Idempotent: a second call leaves the set alone.
	require.NoError(t, store.EnsureDefaultCategories(ctx, "user1"))
	cats, err = store.ListCategories(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cats, 6)

	// A scope the user has pruned down is not re-seeded.
	for _, cat := range cats[:len(cats)-1] {
		require.NoError(t, store.DeleteCategory(ctx, "user1", cat.ID))
	}
	require.NoError(t, store.EnsureDefaultCategories(ctx, "user1"))
	cats, err = store.ListCategories(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}
