package model

import (
	"strings"
	"time"
)

// Draft is an unpersisted purchase record awaiting user confirmation.
// All four business fields are plain strings and always defined; an
// extraction response that omits a field yields "" rather than a nil,
// so downstream editors never branch on missing values.
type Draft struct {
	Vendor   string
	Total    string
	Category string
	Date     string
}

// IsComplete reports whether every field is non-empty after trimming.
func (d Draft) IsComplete() bool {
	return strings.TrimSpace(d.Vendor) != "" &&
		strings.TrimSpace(d.Total) != "" &&
		strings.TrimSpace(d.Category) != "" &&
		strings.TrimSpace(d.Date) != ""
}

// Trimmed returns a copy of the draft with surrounding whitespace
// removed from every field.
func (d Draft) Trimmed() Draft {
	return Draft{
		Vendor:   strings.TrimSpace(d.Vendor),
		Total:    strings.TrimSpace(d.Total),
		Category: strings.TrimSpace(d.Category),
		Date:     strings.TrimSpace(d.Date),
	}
}

// Record is a persisted purchase record. ID is assigned by the store;
// Timestamp is the server-side creation instant.
type Record struct {
	Timestamp time.Time
	ID        string
	UserID    string
	Vendor    string
	Total     string
	Category  string
	Date      string
}
