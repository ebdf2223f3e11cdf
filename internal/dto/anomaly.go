package dto

import "facturo/internal/models"

type DetectAnomaliesRequest struct {
	Restaurant string                   `json:"restaurant"`
	Supplier   string                   `json:"supplier" validate:"required"`
	InvoiceID  *string                  `json:"invoice_id"`
	Items      []models.InvoiceLineItem `json:"items" validate:"required"`
}

type SendMailRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
}

type SupplierReplyRequest struct {
	SupplierReply *string `json:"supplier_reply"`
	Comment       *string `json:"comment"`
}

type UpdateStatusRequest struct {
	Status        string  `json:"status" validate:"required"`
	Comment       *string `json:"comment"`
	SupplierReply *string `json:"supplier_reply"`
}

type AnomalyResponse struct {
	ID            string   `json:"id"`
	ProductName   string   `json:"product_name"`
	Supplier      string   `json:"supplier"`
	Restaurant    string   `json:"restaurant"`
	InvoicePrice  float64  `json:"invoice_price"`
	CatalogPrice  float64  `json:"catalog_price"`
	EcartEuros    float64  `json:"ecart_euros"`
	EcartPourcent float64  `json:"ecart_pourcent"`
	Status        string   `json:"status"`
	Comment       *string  `json:"comment,omitempty"`
	SupplierReply *string  `json:"supplier_reply,omitempty"`
	InvoiceID     *string  `json:"invoice_id,omitempty"`
	DetectedAt    string   `json:"detected_at"`
	MailSentAt    *string  `json:"mail_sent_at,omitempty"`
	ResponseAt    *string  `json:"response_at,omitempty"`
	UpdatedAt     string   `json:"updated_at"`
}
