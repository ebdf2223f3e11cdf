package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"text/template"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAnomalyNotFound   = errors.New("anomaly not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrInvalidStatus     = errors.New("unknown anomaly status")
)

// Operator-facing supplier correspondence. The two-option ask at the end is
// deliberate: either the supplier owns a billing error and issues a credit
// note, or the price changed and they send the updated catalog.
const correspondenceTemplate = `Bonjour,

Lors du contrôle d'une facture du {{.DetectedAt}} pour le restaurant {{.Restaurant}}, nous avons relevé un écart de prix sur le produit suivant :

  Produit        : {{.ProductName}}
  Fournisseur    : {{.Supplier}}
  Prix catalogue : {{printf "%.2f" .CatalogPrice}} €
  Prix facturé   : {{printf "%.2f" .InvoicePrice}} €
  Écart          : {{printf "%+.2f" .EcartEuros}} € ({{printf "%+.1f" .EcartPourcent}} %)

Merci de nous confirmer :
1. S'il s'agit d'une erreur de facturation, merci d'émettre un avoir correspondant.
2. S'il s'agit d'un changement de tarif, merci de nous transmettre votre catalogue actualisé.

Cordialement,
L'équipe achats`

var correspondenceTmpl = template.Must(template.New("correspondence").Parse(correspondenceTemplate))

// AnomalyService owns the anomaly record's state machine from detection
// through supplier correspondence to resolution. All mutations go through
// explicit transition operations.
type AnomalyService struct {
	anomalies AnomalyStore
	catalog   CatalogStore
	mail      MailSender
	cfg       *config.AnomalyConfig
	logger    *zap.Logger
}

func NewAnomalyService(
	anomalies AnomalyStore,
	catalog CatalogStore,
	mail MailSender,
	cfg *config.AnomalyConfig,
	logger *zap.Logger,
) *AnomalyService {
	return &AnomalyService{
		anomalies: anomalies,
		catalog:   catalog,
		mail:      mail,
		cfg:       cfg,
		logger:    logger,
	}
}

// DetectAnomalies scans invoice lines against the catalog and creates an
// anomaly for each deviation crossing the operator thresholds: |percent| >=
// PercentThreshold OR |euros| >= EuroThreshold. Deliberately stricter than
// the line-level comparator so the workflow only sees records worth a
// supplier follow-up.
func (s *AnomalyService) DetectAnomalies(
	ctx context.Context,
	restaurant, supplier string,
	invoiceID *uuid.UUID,
	items []models.InvoiceLineItem,
) []*dto.AnomalyResponse {
	scope := restaurant
	if scope == "" {
		scope = models.ScopeGeneral
	}

	refs, err := s.catalog.ListActiveForScope(ctx, scope)
	if err != nil {
		s.logger.Warn("Catalog unavailable, anomaly detection skipped", zap.Error(err))
		return []*dto.AnomalyResponse{}
	}

	var detected []*dto.AnomalyResponse
	for _, item := range items {
		item = sanitizeLineItem(item)

		ref := findReference(item, refs)
		if ref == nil || ref.UnitPrice <= 0 {
			continue
		}

		ecartEuros := item.UnitPrice - ref.UnitPrice
		ecartPourcent := ecartEuros / ref.UnitPrice * 100
		if math.Abs(ecartPourcent) < s.cfg.PercentThreshold && math.Abs(ecartEuros) < s.cfg.EuroThreshold {
			continue
		}

		now := time.Now()
		anomaly := &models.Anomaly{
			ID:            uuid.New(),
			ProductName:   item.Name,
			Supplier:      supplier,
			Restaurant:    scope,
			InvoicePrice:  item.UnitPrice,
			CatalogPrice:  ref.UnitPrice,
			EcartEuros:    ecartEuros,
			EcartPourcent: ecartPourcent,
			Status:        models.StatusDetectee,
			InvoiceID:     invoiceID,
			DetectedAt:    now,
			UpdatedAt:     now,
		}

		if err := s.anomalies.Create(ctx, anomaly); err != nil {
			s.logger.Warn("Failed to persist anomaly",
				zap.String("product", item.Name),
				zap.Error(err),
			)
			continue
		}

		detected = append(detected, anomalyResponse(anomaly))
	}

	if len(detected) > 0 {
		s.logger.Info("Anomalies detected",
			zap.String("supplier", supplier),
			zap.Int("count", len(detected)),
		)
	}

	return detected
}

// GetAnomaly returns one anomaly by id.
func (s *AnomalyService) GetAnomaly(ctx context.Context, id uuid.UUID) (*dto.AnomalyResponse, error) {
	anomaly, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if anomaly == nil {
		return nil, ErrAnomalyNotFound
	}
	return anomalyResponse(anomaly), nil
}

// ListAnomalies returns anomalies newest first, optionally filtered. Storage
// failure degrades to an empty list.
func (s *AnomalyService) ListAnomalies(ctx context.Context, filter models.AnomalyFilter) []*dto.AnomalyResponse {
	anomalies, err := s.anomalies.List(ctx, filter)
	if err != nil {
		s.logger.Warn("Failed to list anomalies", zap.Error(err))
		return []*dto.AnomalyResponse{}
	}

	responses := make([]*dto.AnomalyResponse, len(anomalies))
	for i, anomaly := range anomalies {
		responses[i] = anomalyResponse(anomaly)
	}
	return responses
}

// Stats aggregates counts per status and the cumulative euro delta. Storage
// failure degrades to zero stats.
func (s *AnomalyService) Stats(ctx context.Context) *models.AnomalyStats {
	stats, err := s.anomalies.Stats(ctx)
	if err != nil {
		s.logger.Warn("Failed to compute anomaly stats", zap.Error(err))
		return &models.AnomalyStats{ByStatus: map[models.AnomalyStatus]int{}}
	}
	return stats
}

// SendMail renders the supplier correspondence, hands it to the mail
// collaborator, and on success stamps the mail_envoye transition. If the
// collaborator fails, the anomaly stays in its prior state so the operator
// can retry.
func (s *AnomalyService) SendMail(ctx context.Context, id uuid.UUID, recipient string) (*dto.AnomalyResponse, error) {
	anomaly, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if anomaly == nil {
		return nil, ErrAnomalyNotFound
	}
	if !anomaly.Status.CanTransition(models.StatusMailEnvoye) {
		return nil, ErrIllegalTransition
	}

	subject, body, err := RenderCorrespondence(anomaly)
	if err != nil {
		return nil, fmt.Errorf("failed to render correspondence: %w", err)
	}

	if err := s.mail.Send(recipient, subject, body); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.anomalies.TransitionStatus(ctx, id, anomaly.Status, models.StatusMailEnvoye,
		models.AnomalyStatusUpdate{MailSentAt: &now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIllegalTransition
	}

	return s.GetAnomaly(ctx, id)
}

// MarkCreditAccepted records that the supplier accepted a credit note.
func (s *AnomalyService) MarkCreditAccepted(ctx context.Context, id uuid.UUID, req *dto.SupplierReplyRequest) (*dto.AnomalyResponse, error) {
	return s.markSupplierResponse(ctx, id, models.StatusAvoirAccepte, req)
}

// MarkCreditRefused records that the supplier refused the credit note.
func (s *AnomalyService) MarkCreditRefused(ctx context.Context, id uuid.UUID, req *dto.SupplierReplyRequest) (*dto.AnomalyResponse, error) {
	return s.markSupplierResponse(ctx, id, models.StatusAvoirRefuse, req)
}

// markSupplierResponse re-reads the current status immediately before the
// terminal write: a concurrent accept/refuse race loses with a precondition
// failure instead of overwriting the winner.
func (s *AnomalyService) markSupplierResponse(
	ctx context.Context,
	id uuid.UUID,
	target models.AnomalyStatus,
	req *dto.SupplierReplyRequest,
) (*dto.AnomalyResponse, error) {
	anomaly, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if anomaly == nil {
		return nil, ErrAnomalyNotFound
	}
	if !anomaly.Status.CanTransition(target) {
		return nil, ErrIllegalTransition
	}

	now := time.Now()
	update := models.AnomalyStatusUpdate{ResponseAt: &now}
	if req != nil {
		update.Comment = req.Comment
		update.SupplierReply = req.SupplierReply
	}

	ok, err := s.anomalies.TransitionStatus(ctx, id, anomaly.Status, target, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIllegalTransition
	}

	return s.GetAnomaly(ctx, id)
}

// UpdateStatus is the generic transition: it covers resolution from any state
// and free-text comment / supplier-reply updates. Re-submitting the current
// status only updates the free-text fields.
func (s *AnomalyService) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AnomalyResponse, error) {
	target := models.AnomalyStatus(req.Status)
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	anomaly, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if anomaly == nil {
		return nil, ErrAnomalyNotFound
	}

	update := models.AnomalyStatusUpdate{
		Comment:       req.Comment,
		SupplierReply: req.SupplierReply,
	}

	if target == anomaly.Status {
		ok, err := s.anomalies.UpdateFields(ctx, id, update)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAnomalyNotFound
		}
		return s.GetAnomaly(ctx, id)
	}

	if !anomaly.Status.CanTransition(target) {
		return nil, ErrIllegalTransition
	}

	ok, err := s.anomalies.TransitionStatus(ctx, id, anomaly.Status, target, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIllegalTransition
	}

	return s.GetAnomaly(ctx, id)
}

// DeleteAnomaly is the explicit administrative delete, the only way an
// anomaly record physically disappears.
func (s *AnomalyService) DeleteAnomaly(ctx context.Context, id uuid.UUID) error {
	found, err := s.anomalies.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrAnomalyNotFound
	}
	return nil
}

// RenderCorrespondence produces the subject and body of the supplier mail for
// an anomaly.
func RenderCorrespondence(anomaly *models.Anomaly) (subject, body string, err error) {
	subject = fmt.Sprintf("Écart de prix constaté - %s (%s)", anomaly.ProductName, anomaly.Restaurant)

	data := struct {
		ProductName   string
		Supplier      string
		Restaurant    string
		CatalogPrice  float64
		InvoicePrice  float64
		EcartEuros    float64
		EcartPourcent float64
		DetectedAt    string
	}{
		ProductName:   anomaly.ProductName,
		Supplier:      anomaly.Supplier,
		Restaurant:    anomaly.Restaurant,
		CatalogPrice:  anomaly.CatalogPrice,
		InvoicePrice:  anomaly.InvoicePrice,
		EcartEuros:    anomaly.EcartEuros,
		EcartPourcent: anomaly.EcartPourcent,
		DetectedAt:    anomaly.DetectedAt.Format("02/01/2006"),
	}

	var buf bytes.Buffer
	if err := correspondenceTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

func anomalyResponse(a *models.Anomaly) *dto.AnomalyResponse {
	response := &dto.AnomalyResponse{
		ID:            a.ID.String(),
		ProductName:   a.ProductName,
		Supplier:      a.Supplier,
		Restaurant:    a.Restaurant,
		InvoicePrice:  a.InvoicePrice,
		CatalogPrice:  a.CatalogPrice,
		EcartEuros:    a.EcartEuros,
		EcartPourcent: a.EcartPourcent,
		Status:        string(a.Status),
		Comment:       a.Comment,
		SupplierReply: a.SupplierReply,
		DetectedAt:    a.DetectedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
	if a.InvoiceID != nil {
		id := a.InvoiceID.String()
		response.InvoiceID = &id
	}
	if a.MailSentAt != nil {
		sent := a.MailSentAt.Format(time.RFC3339)
		response.MailSentAt = &sent
	}
	if a.ResponseAt != nil {
		resp := a.ResponseAt.Format(time.RFC3339)
		response.ResponseAt = &resp
	}
	return response
}
