package service

import (
	"context"
	"errors"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrReferenceNotFound = errors.New("reference price not found")
	ErrPendingNotFound   = errors.New("pending product not found")
)

// CatalogService owns the reference-price table and the pending-product
// validation workflow. Promotion of a pending product into the catalog is the
// only write path out of a scan, and it is always human-triggered.
type CatalogService struct {
	catalog CatalogStore
	pending PendingStore
	logger  *zap.Logger
}

func NewCatalogService(catalog CatalogStore, pending PendingStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		pending: pending,
		logger:  logger,
	}
}

// ListReferencePrices returns catalog rows, optionally filtered by supplier.
// A storage failure degrades to an empty list.
func (s *CatalogService) ListReferencePrices(ctx context.Context, supplier *string) []*dto.ReferencePriceResponse {
	refs, err := s.catalog.List(ctx, supplier)
	if err != nil {
		s.logger.Warn("Failed to list reference prices", zap.Error(err))
		return []*dto.ReferencePriceResponse{}
	}

	responses := make([]*dto.ReferencePriceResponse, len(refs))
	for i, ref := range refs {
		responses[i] = referencePriceResponse(ref)
	}
	return responses
}

// UpsertReferencePrice creates or updates the active reference price for the
// (product, supplier, scope) identity.
func (s *CatalogService) UpsertReferencePrice(ctx context.Context, req *dto.UpsertReferencePriceRequest) (*dto.ReferencePriceResponse, error) {
	scope := req.Scope
	if scope == "" {
		scope = models.ScopeGeneral
	}
	category := req.Category
	if category == "" {
		category = "Uncategorized"
	}

	ref := &models.ReferencePrice{
		ID:             uuid.New(),
		ProductName:    req.ProductName,
		NormalizedName: NormalizeName(req.ProductName),
		Supplier:       req.Supplier,
		Scope:          scope,
		CatalogCode:    req.CatalogCode,
		UnitPrice:      req.UnitPrice,
		Unit:           req.Unit,
		Category:       category,
		Active:         true,
		UpdatedAt:      time.Now(),
	}

	if err := s.catalog.Upsert(ctx, ref); err != nil {
		return nil, err
	}

	return referencePriceResponse(ref), nil
}

// DeleteReferencePrice soft-deletes by default; cascade hard-deletes the row
// together with its dependent pending products.
func (s *CatalogService) DeleteReferencePrice(ctx context.Context, id uuid.UUID, cascade bool) error {
	var (
		found bool
		err   error
	)
	if cascade {
		found, err = s.catalog.DeleteCascade(ctx, id)
	} else {
		found, err = s.catalog.SoftDelete(ctx, id)
	}
	if err != nil {
		return err
	}
	if !found {
		return ErrReferenceNotFound
	}
	return nil
}

// ListPendingProducts returns products sighted by the scanner and awaiting
// validation. A storage failure degrades to an empty list.
func (s *CatalogService) ListPendingProducts(ctx context.Context) []*dto.PendingProductResponse {
	pendings, err := s.pending.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to list pending products", zap.Error(err))
		return []*dto.PendingProductResponse{}
	}

	responses := make([]*dto.PendingProductResponse, len(pendings))
	for i, p := range pendings {
		responses[i] = pendingProductResponse(p)
	}
	return responses
}

// ValidatePendingProduct promotes a pending product into the catalog and
// destroys the pending record.
func (s *CatalogService) ValidatePendingProduct(ctx context.Context, id uuid.UUID) (*dto.ReferencePriceResponse, error) {
	p, err := s.pending.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPendingNotFound
	}

	ref := &models.ReferencePrice{
		ID:             uuid.New(),
		ProductName:    p.ProductName,
		NormalizedName: p.NormalizedName,
		Supplier:       p.Supplier,
		Scope:          p.Scope,
		UnitPrice:      p.UnitPrice,
		Unit:           p.Unit,
		Category:       p.Category,
		Active:         true,
		UpdatedAt:      time.Now(),
	}

	if err := s.catalog.Upsert(ctx, ref); err != nil {
		return nil, err
	}

	if _, err := s.pending.Delete(ctx, id); err != nil {
		s.logger.Warn("Validated pending product could not be removed",
			zap.String("id", id.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Pending product promoted to catalog",
		zap.String("product", p.ProductName),
		zap.String("supplier", p.Supplier),
	)

	return referencePriceResponse(ref), nil
}

// RejectPendingProduct discards a pending product without touching the
// catalog.
func (s *CatalogService) RejectPendingProduct(ctx context.Context, id uuid.UUID) error {
	found, err := s.pending.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrPendingNotFound
	}
	return nil
}

func referencePriceResponse(ref *models.ReferencePrice) *dto.ReferencePriceResponse {
	return &dto.ReferencePriceResponse{
		ID:          ref.ID.String(),
		ProductName: ref.ProductName,
		Supplier:    ref.Supplier,
		Scope:       ref.Scope,
		CatalogCode: ref.CatalogCode,
		UnitPrice:   ref.UnitPrice,
		Unit:        ref.Unit,
		Category:    ref.Category,
		Active:      ref.Active,
		UpdatedAt:   ref.UpdatedAt.Format(time.RFC3339),
	}
}

func pendingProductResponse(p *models.PendingProduct) *dto.PendingProductResponse {
	return &dto.PendingProductResponse{
		ID:          p.ID.String(),
		ProductName: p.ProductName,
		Supplier:    p.Supplier,
		Scope:       p.Scope,
		UnitPrice:   p.UnitPrice,
		Unit:        p.Unit,
		Category:    p.Category,
		Source:      p.Source,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}
