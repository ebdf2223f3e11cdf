package dto

import "facturo/internal/models"

type ReconcileOrderRequest struct {
	Supplier string                   `json:"supplier"`
	Items    []models.InvoiceLineItem `json:"items" validate:"required"`
}

// LineReconciliation is one line of the order/invoice diff. Order-side fields
// are zero for extra_in_invoice lines, invoice-side fields for
// missing_in_invoice lines.
type LineReconciliation struct {
	Status          models.LineMatchStatus `json:"status"`
	OrderProduct    string                 `json:"order_product,omitempty"`
	InvoiceProduct  string                 `json:"invoice_product,omitempty"`
	MatchScore      float64                `json:"match_score,omitempty"`
	OrderQuantity   float64                `json:"order_quantity"`
	InvoiceQuantity float64                `json:"invoice_quantity"`
	OrderPrice      float64                `json:"order_price"`
	InvoicePrice    float64                `json:"invoice_price"`
}

type ReconciliationSummary struct {
	TotalLines      int     `json:"total_lines"`
	PerfectMatches  int     `json:"perfect_matches"`
	PriceDiffs      int     `json:"price_differences"`
	QuantityDiffs   int     `json:"quantity_differences"`
	BothDiffs       int     `json:"both_different"`
	MissingInvoice  int     `json:"missing_in_invoice"`
	ExtraInvoice    int     `json:"extra_in_invoice"`
	MatchRate       float64 `json:"match_rate"`
	OrderTotal      float64 `json:"order_total"`
	InvoiceTotal    float64 `json:"invoice_total"`
	SupplierMatches bool    `json:"supplier_matches"`
}

type OrderReconciliation struct {
	OrderID           string                `json:"order_id"`
	OrderSupplier     string                `json:"order_supplier"`
	InvoiceSupplier   string                `json:"invoice_supplier"`
	RequiresAttention bool                  `json:"requires_attention"`
	Lines             []LineReconciliation  `json:"lines"`
	Summary           ReconciliationSummary `json:"summary"`
}
