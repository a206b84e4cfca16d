// Package storage provides the data persistence layer for receiptwise.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veranek/receiptwise/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidDraft = errors.New("invalid draft")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDraftForCreate ensures a draft carries the fields a persisted
// record requires. Category may be empty: the confirmation editor accepts
// an uncategorized record when the extractor's guess matched nothing and
// the user cleared it.
func validateDraftForCreate(draft model.Draft) error {
	if strings.TrimSpace(draft.Vendor) == "" ||
		strings.TrimSpace(draft.Total) == "" ||
		strings.TrimSpace(draft.Date) == "" {
		return fmt.Errorf("%w: vendor, total and date are required", ErrInvalidDraft)
	}
	return nil
}
