// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/veranek/receiptwise/internal/model"
)

// RecordFilter defines filtering options for record queries.
type RecordFilter struct {
	// Month restricts results to a calendar month when non-zero.
	Month time.Time
	// Vendor is a case-insensitive substring match when non-empty.
	Vendor string
	Limit  int
	Offset int
}

// Store is the persistence capability consumed by the capture pipeline
// and the category management surface. Every call is scoped by an opaque
// per-user identifier established outside this core.
type Store interface {
	// Record operations.
	CreateRecord(ctx context.Context, userID string, draft model.Draft) (*model.Record, error)
	GetRecord(ctx context.Context, userID, id string) (*model.Record, error)
	ListRecords(ctx context.Context, userID string, filter RecordFilter) ([]model.Record, error)
	UpdateRecord(ctx context.Context, userID, id string, draft model.Draft) error
	DeleteRecord(ctx context.Context, userID, id string) error

	// Category registry operations.
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, userID, name, color string, monthlyBudget *float64) (*model.Category, error)
	RenameCategory(ctx context.Context, userID, id, newName string) error
	DeleteCategory(ctx context.Context, userID, id string) error
	EnsureDefaultCategories(ctx context.Context, userID string) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// Extractor turns an image artifact plus the known category names into a
// structured draft. Exactly one of (draft, error) is meaningful; a failed
// extraction never yields a partial draft.
type Extractor interface {
	Extract(ctx context.Context, artifact model.ImageArtifact, knownCategories []string) (model.Draft, error)
}

// ImageSource produces a single image artifact per invocation.
type ImageSource interface {
	Acquire(ctx context.Context) (*model.ImageArtifact, error)
}

// ReviewAction is the outcome of one confirmation editor interaction.
type ReviewAction string

const (
	// ReviewAccept commits the (possibly edited) draft.
	ReviewAccept ReviewAction = "accept"
	// ReviewCancel discards the draft without any write.
	ReviewCancel ReviewAction = "cancel"
)

// Prompter is the user-interaction contract the orchestrator drives.
// Implementations are the line-based CLI editor and the TUI form.
type Prompter interface {
	// SelectMethod asks the user to choose an entry path, or "" to cancel.
	SelectMethod(ctx context.Context) (model.CaptureMethod, error)
	// SelectFile asks for the path of an image to upload, or "" to go back.
	SelectFile(ctx context.Context) (string, error)
	// CollectManualDraft gathers the four fields for manual entry.
	CollectManualDraft(ctx context.Context) (model.Draft, error)
	// Review presents a draft for correction against the category list and
	// returns the edited draft with the chosen action.
	Review(ctx context.Context, draft model.Draft, categories []model.Category) (model.Draft, ReviewAction, error)
	// NotifyError surfaces a terminal, user-visible failure notice.
	NotifyError(message string)
}
