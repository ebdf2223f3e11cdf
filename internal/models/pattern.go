package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceOccurrence is one sighting of an out-of-threshold price, kept as the
// evidence trail of a pattern.
type PriceOccurrence struct {
	InvoicePrice float64   `json:"invoice_price"`
	DiffPercent  float64   `json:"diff_percent"`
	TotalImpact  float64   `json:"total_impact"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// AnomalyPattern groups recurring price deviations of the same (product,
// supplier) pair across invoices. Derived on demand, never persisted as a
// primary record.
type AnomalyPattern struct {
	ProductName   string            `json:"product_name"`
	Supplier      string            `json:"supplier"`
	Occurrences   int               `json:"occurrences"`
	MeanPrice     float64           `json:"mean_price"`
	Consistency   float64           `json:"consistency"`
	AvgPctChange  float64           `json:"avg_pct_change"`
	TotalImpact   float64           `json:"total_impact"`
	Confidence    float64           `json:"confidence"`
	RecentHistory []PriceOccurrence `json:"recent_history"`
}

// SuggestionStatus is the review state of a price-update suggestion.
type SuggestionStatus string

const (
	SuggestionPendingValidation SuggestionStatus = "pending_validation"
	SuggestionReviewed          SuggestionStatus = "reviewed"
)

// Recommendation tiers by confidence.
const (
	TierStrong   = "strong"
	TierModerate = "moderate"
	TierWeak     = "weak"
)

// PriceUpdateSuggestion is a non-binding proposal to update a catalog price.
// RequiresHumanValidation and AutoApply are a business invariant: the pattern
// engine never writes the catalog, and this type exposes no operation that
// could.
type PriceUpdateSuggestion struct {
	ID                      uuid.UUID        `db:"id"`
	ProductName             string           `db:"product_name"`
	Supplier                string           `db:"supplier"`
	CurrentPrice            *float64         `db:"current_price"`
	ProposedPrice           float64          `db:"proposed_price"`
	Confidence              float64          `db:"confidence"`
	Tier                    string           `db:"tier"`
	RequiresHumanValidation bool             `db:"requires_human_validation"`
	AutoApply               bool             `db:"auto_apply"`
	Status                  SuggestionStatus `db:"status"`
	Decision                *string          `db:"decision"`
	Notes                   *string          `db:"notes"`
	CreatedAt               time.Time        `db:"created_at"`
	ReviewedAt              *time.Time       `db:"reviewed_at"`
}
