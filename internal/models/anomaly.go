package models

import (
	"time"

	"github.com/google/uuid"
)

// AnomalyStatus is the workflow state of a price anomaly, from detection
// through supplier correspondence to resolution.
type AnomalyStatus string

const (
	StatusDetectee     AnomalyStatus = "detectee"
	StatusMailEnvoye   AnomalyStatus = "mail_envoye"
	StatusAvoirAccepte AnomalyStatus = "avoir_accepte"
	StatusAvoirRefuse  AnomalyStatus = "avoir_refuse"
	StatusResolu       AnomalyStatus = "resolu"
)

// allowedTransitions is the explicit state machine: illegal transitions are a
// validation error, not a silent field write. "resolu" is reachable from any
// state.
var allowedTransitions = map[AnomalyStatus][]AnomalyStatus{
	StatusDetectee:     {StatusMailEnvoye, StatusResolu},
	StatusMailEnvoye:   {StatusAvoirAccepte, StatusAvoirRefuse, StatusResolu},
	StatusAvoirAccepte: {StatusResolu},
	StatusAvoirRefuse:  {StatusResolu},
	StatusResolu:       {},
}

// CanTransition reports whether moving from s to target is a legal workflow
// step.
func (s AnomalyStatus) CanTransition(target AnomalyStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known workflow state.
func (s AnomalyStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// AnomalyFilter narrows anomaly listings. Nil fields are ignored.
type AnomalyFilter struct {
	Status     *AnomalyStatus
	Supplier   *string
	Restaurant *string
}

// AnomalyStats aggregates anomaly counts per status and the cumulative euro
// delta.
type AnomalyStats struct {
	Total      int                   `json:"total"`
	ByStatus   map[AnomalyStatus]int `json:"by_status"`
	TotalEcart float64               `json:"total_ecart_euros"`
}

// AnomalyStatusUpdate carries the optional field stamps applied together with
// a status transition.
type AnomalyStatusUpdate struct {
	Comment       *string
	SupplierReply *string
	MailSentAt    *time.Time
	ResponseAt    *time.Time
}

// Anomaly is an operator-facing record of a price deviation large enough to
// warrant supplier follow-up.
type Anomaly struct {
	ID            uuid.UUID     `db:"id"`
	ProductName   string        `db:"product_name"`
	Supplier      string        `db:"supplier"`
	Restaurant    string        `db:"restaurant"`
	InvoicePrice  float64       `db:"invoice_price"`
	CatalogPrice  float64       `db:"catalog_price"`
	EcartEuros    float64       `db:"ecart_euros"`
	EcartPourcent float64       `db:"ecart_pourcent"`
	Status        AnomalyStatus `db:"status"`
	Comment       *string       `db:"comment"`
	SupplierReply *string       `db:"supplier_reply"`
	InvoiceID     *uuid.UUID    `db:"invoice_id"`
	DetectedAt    time.Time     `db:"detected_at"`
	MailSentAt    *time.Time    `db:"mail_sent_at"`
	ResponseAt    *time.Time    `db:"response_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}
