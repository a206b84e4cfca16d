package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
)

// ListCategories returns all categories in a user's scope, ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, color, monthly_budget, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var budget sql.NullFloat64
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &budget, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if budget.Valid {
			cat.MonthlyBudget = &budget.Float64
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "user", userID, "count", len(categories))
	return categories, nil
}

// GetCategoryByName returns a category by its canonical name, or nil when
// no category in the user's scope matches exactly.
func (s *SQLiteStore) GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, color, monthly_budget, created_at
		FROM categories
		WHERE user_id = ? AND name = ?`

	var cat model.Category
	var budget sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query, userID, name).Scan(
		&cat.ID, &cat.UserID, &cat.Name, &cat.Color, &budget, &cat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	if budget.Valid {
		cat.MonthlyBudget = &budget.Float64
	}

	return &cat, nil
}

// CreateCategory creates a new category in the user's scope. The name is
// trimmed before persisting; its original casing is kept. Uniqueness is
// case-insensitive and decided by the store's own unique index in a single
// conditional write, so two concurrent creates differing only in case
// cannot both succeed.
func (s *SQLiteStore) CreateCategory(ctx context.Context, userID, name, color string, monthlyBudget *float64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", common.ErrValidation)
	}
	if color == "" {
		color = "#FFFFFF"
	}

	cat := model.Category{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          name,
		Color:         color,
		MonthlyBudget: monthlyBudget,
		CreatedAt:     time.Now(),
	}

	insertQuery := `
		INSERT INTO categories (id, user_id, name, color, monthly_budget, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	var budget sql.NullFloat64
	if monthlyBudget != nil {
		budget = sql.NullFloat64{Float64: *monthlyBudget, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, insertQuery, cat.ID, cat.UserID, cat.Name, cat.Color, budget, cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", common.ErrDuplicateCategory, name)
		}
		return nil, fmt.Errorf("%w: failed to create category: %v", common.ErrPersistence, err)
	}

	slog.Info("created category", "user", userID, "name", name, "id", cat.ID)
	return &cat, nil
}

// RenameCategory changes a category's name, keeping the new casing as
// canonical. The uniqueness index arbitrates the duplicate check and
// naturally excludes the category's own row when only the casing of its
// own name changes.
func (s *SQLiteStore) RenameCategory(ctx context.Context, userID, id, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: category name cannot be empty", common.ErrValidation)
	}

	// Renaming a category follows it into existing records so the selector
	// list and persisted data stay consistent.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE user_id = ? AND id = ?`, userID, id,
	).Scan(&oldName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE user_id = ? AND id = ?`, newName, userID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", common.ErrDuplicateCategory, newName)
		}
		return fmt.Errorf("%w: failed to rename category: %v", common.ErrPersistence, err)
	}

	if oldName != newName {
		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET category = ? WHERE user_id = ? AND category = ?`,
			newName, userID, oldName); err != nil {
			return fmt.Errorf("%w: failed to update records: %v", common.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit rename: %v", common.ErrPersistence, err)
	}

	slog.Info("renamed category", "user", userID, "id", id, "from", oldName, "to", newName)
	return nil
}

// DeleteCategory removes a category from the user's scope. A scope that
// has categories never drops to zero: deleting the sole remaining one
// fails, checked and deleted inside one transaction.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count <= 1 {
		return common.ErrLastCategory
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete category: %v", common.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit delete: %v", common.ErrPersistence, err)
	}

	slog.Info("deleted category", "user", userID, "id", id)
	return nil
}

// EnsureDefaultCategories seeds the fixed default set for a user scope
// that has no categories yet. Scopes that already have any are left alone.
func (s *SQLiteStore) EnsureDefaultCategories(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, def := range model.DefaultCategories {
		if _, err := s.CreateCategory(ctx, userID, def.Name, def.Color, nil); err != nil {
			// A concurrent seed may have won the race for this name.
			if errors.Is(err, common.ErrDuplicateCategory) {
				continue
			}
			return err
		}
	}

	slog.Info("seeded default categories", "user", userID, "count", len(model.DefaultCategories))
	return nil
}
