package model

import (
	"strings"
	"time"
)

// Category is a user-scoped expense category. Names are unique per user
// under case-insensitive comparison; the stored name keeps its original
// casing and is the canonical form everywhere else in the pipeline.
type Category struct {
	CreatedAt     time.Time
	ID            string
	UserID        string
	Name          string
	Color         string
	MonthlyBudget *float64
}

// NormalizeCategoryName produces the comparison key used for the
// per-user uniqueness invariant: trimmed and lowercased. The canonical
// display name is never normalized.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DefaultCategories is the fixed set created for a user at account setup.
var DefaultCategories = []Category{
	{Name: "Grocery", Color: "#4ECDC4"},
	{Name: "Dining", Color: "#FF6B6B"},
	{Name: "Transport", Color: "#FFE66D"},
	{Name: "Shopping", Color: "#95E1D3"},
	{Name: "Utilities", Color: "#A8DADC"},
	{Name: "Misc", Color: "#CCCCCC"},
}
