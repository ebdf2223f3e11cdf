package dto

import "facturo/internal/models"

type ScanCompareRequest struct {
	Restaurant string                   `json:"restaurant"`
	Supplier   string                   `json:"supplier" validate:"required"`
	Items      []models.InvoiceLineItem `json:"items" validate:"required"`
}

// ScanComparison is the output of one invoice/catalog comparison: aggregate
// counters, the per-line results, and the subset of lines with a
// non-negligible euro deviation (the pattern detector's input).
type ScanComparison struct {
	Restaurant  string                         `json:"restaurant"`
	Supplier    string                         `json:"supplier"`
	TotalItems  int                            `json:"total_items"`
	Matched     int                            `json:"matched"`
	NewProducts int                            `json:"new_products"`
	Results     []models.PriceComparisonResult `json:"results"`
	Variations  []models.PriceComparisonResult `json:"variations"`
}
