package capture

import (
	"fmt"
	"strings"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
)

// BuildManualDraft validates manually entered fields and produces a
// trimmed draft. Manual entry requires all four fields; there is no
// extractor to fill gaps later.
func BuildManualDraft(vendor, total, category, date string) (model.Draft, error) {
	draft := model.Draft{
		Vendor:   strings.TrimSpace(vendor),
		Total:    strings.TrimSpace(total),
		Category: strings.TrimSpace(category),
		Date:     strings.TrimSpace(date),
	}
	if !draft.IsComplete() {
		return model.Draft{}, common.NewUserError("Please fill out all fields", common.ErrValidation)
	}
	return draft, nil
}

// ValidateDraft checks a draft at accept time. Vendor, total, and date
// must be non-empty. Category may be empty (the record is stored
// uncategorized) but a non-empty category must exactly match a
// registered category name.
func ValidateDraft(draft model.Draft, categories []model.Category) error {
	trimmed := draft.Trimmed()
	if trimmed.Vendor == "" || trimmed.Total == "" || trimmed.Date == "" {
		return common.NewUserError("Please fill out all fields", common.ErrValidation)
	}
	if trimmed.Category == "" {
		return nil
	}
	for _, cat := range categories {
		if cat.Name == trimmed.Category {
			return nil
		}
	}
	return common.NewUserError(
		fmt.Sprintf("Unknown category %q", trimmed.Category),
		common.ErrValidation,
	)
}

// categoryNames projects the registry rows to the name list the
// extractor and the review editor consume.
func categoryNames(categories []model.Category) []string {
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return names
}
