package models

import (
	"time"

	"github.com/google/uuid"
)

// ScopeGeneral is the shared fallback scope used when no restaurant-specific
// reference price exists.
const ScopeGeneral = "General"

// ReferencePrice is the trusted expected unit price for a product from a
// given supplier, optionally scoped to one restaurant. At most one active row
// exists per (normalized name, supplier, scope).
type ReferencePrice struct {
	ID             uuid.UUID `db:"id"`
	ProductName    string    `db:"product_name"`
	NormalizedName string    `db:"normalized_name"`
	Supplier       string    `db:"supplier"`
	Scope          string    `db:"scope"`
	CatalogCode    string    `db:"catalog_code"`
	UnitPrice      float64   `db:"unit_price"`
	Unit           string    `db:"unit"`
	Category       string    `db:"category"`
	Active         bool      `db:"active"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// PendingProduct is a sighted product/price not yet promoted into the
// catalog. Deduplicated by (normalized name, supplier, scope): a repeated
// sighting updates price and timestamp in place.
type PendingProduct struct {
	ID             uuid.UUID `db:"id"`
	ProductName    string    `db:"product_name"`
	NormalizedName string    `db:"normalized_name"`
	Supplier       string    `db:"supplier"`
	Scope          string    `db:"scope"`
	UnitPrice      float64   `db:"unit_price"`
	Unit           string    `db:"unit"`
	Category       string    `db:"category"`
	Source         string    `db:"source"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
