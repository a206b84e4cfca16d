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
	"github.com/veranek/receiptwise/internal/service"
)

// CreateRecord persists a confirmed draft in the user's scope, assigning
// the opaque identifier and the server-side creation instant.
func (s *SQLiteStore) CreateRecord(ctx context.Context, userID string, draft model.Draft) (*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	draft = draft.Trimmed()
	if err := validateDraftForCreate(draft); err != nil {
		return nil, err
	}

	rec := model.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Vendor:    draft.Vendor,
		Total:     draft.Total,
		Category:  draft.Category,
		Date:      draft.Date,
		Timestamp: time.Now(),
	}

	query := `
		INSERT INTO records (id, user_id, vendor, total, category, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Vendor, rec.Total, rec.Category, rec.Date, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create record: %v", common.ErrPersistence, err)
	}

	slog.Info("created record",
		"user", userID,
		"id", rec.ID,
		"vendor", rec.Vendor,
		"category", rec.Category)
	return &rec, nil
}

// GetRecord returns a single record by id within the user's scope.
func (s *SQLiteStore) GetRecord(ctx context.Context, userID, id string) (*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, vendor, total, category, date, created_at
		FROM records
		WHERE user_id = ? AND id = ?`

	var rec model.Record
	err := s.db.QueryRowContext(ctx, query, userID, id).Scan(
		&rec.ID, &rec.UserID, &rec.Vendor, &rec.Total, &rec.Category, &rec.Date, &rec.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	return &rec, nil
}

// ListRecords returns the user's records, newest purchase date first,
// optionally restricted to a calendar month or a vendor substring.
func (s *SQLiteStore) ListRecords(ctx context.Context, userID string, filter service.RecordFilter) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, vendor, total, category, date, created_at
		FROM records
		WHERE user_id = ?`)
	args := []any{userID}

	if !filter.Month.IsZero() {
		// Dates are stored as YYYY-MM-DD, so a month is a string prefix.
		sb.WriteString(` AND date LIKE ?`)
		args = append(args, filter.Month.Format("2006-01")+"%")
	}
	if filter.Vendor != "" {
		sb.WriteString(` AND vendor LIKE ? COLLATE NOCASE`)
		args = append(args, "%"+filter.Vendor+"%")
	}

	sb.WriteString(` ORDER BY date DESC, created_at DESC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Vendor, &rec.Total, &rec.Category, &rec.Date, &rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	slog.Debug("retrieved records", "user", userID, "count", len(records))
	return records, nil
}

// UpdateRecord replaces a record's four business fields.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, userID, id string, draft model.Draft) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	draft = draft.Trimmed()
	if err := validateDraftForCreate(draft); err != nil {
		return err
	}

	query := `
		UPDATE records
		SET vendor = ?, total = ?, category = ?, date = ?
		WHERE user_id = ? AND id = ?`

	result, err := s.db.ExecContext(ctx, query,
		draft.Vendor, draft.Total, draft.Category, draft.Date, userID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to update record: %v", common.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}

	slog.Info("updated record", "user", userID, "id", id)
	return nil
}

// DeleteRecord removes a record from the user's scope.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete record: %v", common.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}

	slog.Info("deleted record", "user", userID, "id", id)
	return nil
}
