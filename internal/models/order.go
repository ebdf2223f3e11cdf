package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID        uuid.UUID       `db:"id"`
	Supplier  string          `db:"supplier"`
	Status    string          `db:"status"`
	Total     float64         `db:"total"`
	Lines     []OrderLineItem `db:"-"`
	CreatedAt time.Time       `db:"created_at"`
}

type OrderLineItem struct {
	ID          uuid.UUID `db:"id"`
	OrderID     uuid.UUID `db:"order_id"`
	ProductName string    `db:"product_name"`
	Quantity    float64   `db:"quantity"`
	UnitPrice   float64   `db:"unit_price"`
}

// LineMatchStatus is the per-line outcome of an order/invoice reconciliation.
type LineMatchStatus string

const (
	LinePerfectMatch       LineMatchStatus = "perfect_match"
	LinePriceDifference    LineMatchStatus = "price_difference"
	LineQuantityDifference LineMatchStatus = "quantity_difference"
	LineBothDifferent      LineMatchStatus = "both_different"
	LineMissingInInvoice   LineMatchStatus = "missing_in_invoice"
	LineExtraInInvoice     LineMatchStatus = "extra_in_invoice"
)
