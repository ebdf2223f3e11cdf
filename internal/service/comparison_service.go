package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ComparisonService matches invoice line items against the reference catalog
// and classifies each line's price deviation.
type ComparisonService struct {
	catalog CatalogStore
	pending PendingStore
	cfg     *config.MatchingConfig
	logger  *zap.Logger
}

func NewComparisonService(
	catalog CatalogStore,
	pending PendingStore,
	cfg *config.MatchingConfig,
	logger *zap.Logger,
) *ComparisonService {
	return &ComparisonService{
		catalog: catalog,
		pending: pending,
		cfg:     cfg,
		logger:  logger,
	}
}

// CompareInvoice produces one PriceComparisonResult per line item against the
// catalog visible from the restaurant scope. A scan never fails: if the
// catalog is unreachable, every line comes back "new".
func (s *ComparisonService) CompareInvoice(
	ctx context.Context,
	restaurant, supplier string,
	items []models.InvoiceLineItem,
) *dto.ScanComparison {
	scope := restaurant
	if scope == "" {
		scope = models.ScopeGeneral
	}

	refs, err := s.catalog.ListActiveForScope(ctx, scope)
	if err != nil {
		s.logger.Warn("Catalog unavailable, classifying all lines as new",
			zap.String("restaurant", scope),
			zap.Error(err),
		)
		refs = nil
	}

	comparison := &dto.ScanComparison{
		Restaurant: scope,
		Supplier:   supplier,
		TotalItems: len(items),
	}

	for _, item := range items {
		item = sanitizeLineItem(item)

		ref := findReference(item, refs)
		result := s.classify(item, ref)
		comparison.Results = append(comparison.Results, result)

		if result.Status == models.ComparisonNew {
			comparison.NewProducts++
			s.registerPending(ctx, item, supplier, scope)
		} else {
			comparison.Matched++
		}

		if math.Abs(result.DiffEuros) > s.cfg.NegligibleEuros {
			comparison.Variations = append(comparison.Variations, result)
		}
	}

	return comparison
}

// sanitizeLineItem applies the malformed-input defaults: zero numerics stay
// zero, a missing name becomes a sentinel instead of propagating emptiness.
func sanitizeLineItem(item models.InvoiceLineItem) models.InvoiceLineItem {
	if strings.TrimSpace(item.Name) == "" {
		item.Name = "Unknown"
	}
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	if item.UnitPrice < 0 {
		item.UnitPrice = 0
	}
	return item
}

// findReference tries, in order: exact catalog-code match, exact
// normalized-name match, then substring match. refs must already be ordered
// restaurant scope first so that scoped entries win over General ones.
func findReference(item models.InvoiceLineItem, refs []*models.ReferencePrice) *models.ReferencePrice {
	if item.CatalogCode != "" {
		for _, ref := range refs {
			if ref.CatalogCode != "" && strings.EqualFold(ref.CatalogCode, item.CatalogCode) {
				return ref
			}
		}
	}

	name := NormalizeName(item.Name)
	if name == "" {
		return nil
	}

	for _, ref := range refs {
		if ref.NormalizedName == name {
			return ref
		}
	}

	for _, ref := range refs {
		if containsName(name, ref.NormalizedName) {
			return ref
		}
	}

	return nil
}

// containsName reports whether query occurs inside candidate. The query is
// regex-escaped first; if compilation still fails, degrade to a plain
// substring scan rather than dropping the line.
func containsName(query, candidate string) bool {
	re, err := regexp.Compile(regexp.QuoteMeta(query))
	if err != nil {
		return strings.Contains(candidate, query)
	}
	return re.MatchString(candidate)
}

func (s *ComparisonService) classify(item models.InvoiceLineItem, ref *models.ReferencePrice) models.PriceComparisonResult {
	result := models.PriceComparisonResult{
		ProductName:  item.Name,
		Quantity:     item.Quantity,
		InvoicePrice: item.UnitPrice,
	}

	if ref == nil {
		result.Status = models.ComparisonNew
		return result
	}

	refPrice := ref.UnitPrice
	result.ReferencePrice = &refPrice
	result.DiffEuros = item.UnitPrice - refPrice
	if refPrice > 0 {
		result.DiffPercent = result.DiffEuros / refPrice * 100
	}
	result.TotalImpact = result.DiffEuros * item.Quantity

	switch {
	case math.Abs(result.DiffPercent) < s.cfg.OkThresholdPct:
		result.Status = models.ComparisonOK
	case result.DiffPercent > 0:
		result.Status = models.ComparisonOverprice
		result.AlertSeverity = models.SeverityMedium
		if result.DiffPercent > s.cfg.HighSeverityPct {
			result.AlertSeverity = models.SeverityHigh
		}
		result.Alert = fmt.Sprintf("%s facturé %.2f€ au lieu de %.2f€ (+%.1f%%)",
			item.Name, item.UnitPrice, refPrice, result.DiffPercent)
	default:
		result.Status = models.ComparisonSavings
		result.AlertSeverity = models.SeveritySuccess
		result.Alert = fmt.Sprintf("%s facturé %.2f€ au lieu de %.2f€ (%.1f%%)",
			item.Name, item.UnitPrice, refPrice, result.DiffPercent)
	}

	return result
}

// registerPending records an unmatched product for human validation. The
// sighting is dropped when an equivalent active reference price already
// exists; otherwise it is upserted so repeated scans never duplicate rows.
// Failures are logged and never abort the scan.
func (s *ComparisonService) registerPending(ctx context.Context, item models.InvoiceLineItem, supplier, scope string) {
	name := NormalizeName(item.Name)
	if name == "" {
		return
	}

	for _, sc := range []string{scope, models.ScopeGeneral} {
		existing, err := s.catalog.GetActiveByIdentity(ctx, name, supplier, sc)
		if err != nil {
			s.logger.Warn("Failed to check existing reference price", zap.Error(err))
			return
		}
		if existing != nil {
			return
		}
		if sc == models.ScopeGeneral {
			break
		}
	}

	now := time.Now()
	pendingProduct := &models.PendingProduct{
		ID:             uuid.New(),
		ProductName:    item.Name,
		NormalizedName: name,
		Supplier:       supplier,
		Scope:          scope,
		UnitPrice:      item.UnitPrice,
		Unit:           item.Unit,
		Category:       "Uncategorized",
		Source:         "scanner",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.pending.UpsertSighting(ctx, pendingProduct); err != nil {
		s.logger.Warn("Failed to register pending product",
			zap.String("product", item.Name),
			zap.Error(err),
		)
	}
}
