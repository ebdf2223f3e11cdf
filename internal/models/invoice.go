package models

// InvoiceLineItem is one OCR/vision-extracted line of a supplier invoice.
// Produced upstream, consumed read-only by the matching components.
type InvoiceLineItem struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	CatalogCode string  `json:"catalog_code,omitempty"`
}

// ComparisonStatus classifies one invoice line against its reference price.
type ComparisonStatus string

const (
	ComparisonOK        ComparisonStatus = "ok"
	ComparisonNew       ComparisonStatus = "new"
	ComparisonOverprice ComparisonStatus = "overprice"
	ComparisonSavings   ComparisonStatus = "savings"
)

// Alert severities attached to out-of-threshold comparison results.
const (
	SeverityHigh    = "high"
	SeverityMedium  = "medium"
	SeveritySuccess = "success"
)

// PriceComparisonResult is the per-line output of the price comparator.
// Ephemeral: computed on demand, never persisted as its own record.
type PriceComparisonResult struct {
	ProductName    string           `json:"product_name"`
	Status         ComparisonStatus `json:"status"`
	Quantity       float64          `json:"quantity"`
	InvoicePrice   float64          `json:"invoice_price"`
	ReferencePrice *float64         `json:"reference_price,omitempty"`
	DiffEuros      float64          `json:"diff_euros"`
	DiffPercent    float64          `json:"diff_percent"`
	TotalImpact    float64          `json:"total_impact"`
	Alert          string           `json:"alert,omitempty"`
	AlertSeverity  string           `json:"alert_severity,omitempty"`
}
