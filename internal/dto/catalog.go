package dto

type UpsertReferencePriceRequest struct {
	ProductName string  `json:"product_name" validate:"required"`
	Supplier    string  `json:"supplier" validate:"required"`
	Scope       string  `json:"scope"`
	CatalogCode string  `json:"catalog_code"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gt=0"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
}

type ReferencePriceResponse struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Supplier    string  `json:"supplier"`
	Scope       string  `json:"scope"`
	CatalogCode string  `json:"catalog_code,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	Active      bool    `json:"active"`
	UpdatedAt   string  `json:"updated_at"`
}

type PendingProductResponse struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Supplier    string  `json:"supplier"`
	Scope       string  `json:"scope"`
	UnitPrice   float64 `json:"unit_price"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	CreatedAt   string  `json:"created_at"`
}
