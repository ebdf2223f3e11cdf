package dto

import (
	"time"

	"facturo/internal/models"
)

// InvoiceScan is one invoice's contribution to a pattern-detection batch: the
// comparator's variation list tagged with supplier and scan time.
type InvoiceScan struct {
	Supplier        string                         `json:"supplier" validate:"required"`
	Restaurant      string                         `json:"restaurant"`
	ScannedAt       time.Time                      `json:"scanned_at"`
	ProductsScanned int                            `json:"products_scanned"`
	Variations      []models.PriceComparisonResult `json:"variations"`
}

type PatternDetectRequest struct {
	Scans []InvoiceScan `json:"scans" validate:"required"`
}

// SupplierInsight is the per-supplier rollup of a pattern-detection run.
type SupplierInsight struct {
	Supplier               string  `json:"supplier"`
	ProductsScanned        int     `json:"products_scanned"`
	Anomalies              int     `json:"anomalies"`
	AnomalyRate            float64 `json:"anomaly_rate"`
	HighConfidencePatterns int     `json:"high_confidence_patterns"`
	CumulativeImpact       float64 `json:"cumulative_impact"`
	Recommendation         string  `json:"recommendation,omitempty"`
	HighFinancialPriority  bool    `json:"high_financial_priority"`
}

type PatternReport struct {
	Patterns    []models.AnomalyPattern `json:"patterns"`
	Suggestions []SuggestionResponse    `json:"suggestions"`
	Insights    []SupplierInsight       `json:"insights"`
}

type ReviewSuggestionRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=accepted rejected"`
	Notes    *string `json:"notes"`
}

type SuggestionResponse struct {
	ID                      string   `json:"id"`
	ProductName             string   `json:"product_name"`
	Supplier                string   `json:"supplier"`
	CurrentPrice            *float64 `json:"current_price,omitempty"`
	ProposedPrice           float64  `json:"proposed_price"`
	Confidence              float64  `json:"confidence"`
	Tier                    string   `json:"tier"`
	RequiresHumanValidation bool     `json:"requires_human_validation"`
	AutoApply               bool     `json:"auto_apply"`
	Status                  string   `json:"status"`
	Decision                *string  `json:"decision,omitempty"`
	Notes                   *string  `json:"notes,omitempty"`
	CreatedAt               string   `json:"created_at"`
	ReviewedAt              *string  `json:"reviewed_at,omitempty"`
}
