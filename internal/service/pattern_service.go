package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSuggestionNotFound = errors.New("suggestion not found")

const evidenceTrailSize = 5

// PatternService mines batches of invoice scans for recurring price
// deviations and turns the stable ones into non-binding catalog suggestions.
// It never writes the catalog itself.
type PatternService struct {
	suggestions SuggestionStore
	catalog     CatalogStore
	cfg         *config.PatternConfig
	logger      *zap.Logger
}

func NewPatternService(
	suggestions SuggestionStore,
	catalog CatalogStore,
	cfg *config.PatternConfig,
	logger *zap.Logger,
) *PatternService {
	return &PatternService{
		suggestions: suggestions,
		catalog:     catalog,
		cfg:         cfg,
		logger:      logger,
	}
}

type priceBucket struct {
	productName    string
	normalizedName string
	supplier       string
	occurrences    []models.PriceOccurrence
}

type supplierTally struct {
	productsScanned int
	anomalies       int
}

// DetectPatterns runs over a batch of scan outputs and surfaces recurring
// pricing signals, distinct from one-off anomalies: a (product, supplier)
// bucket must recur and its invoiced prices must be stable (low coefficient
// of variation) to count as a pattern.
func (s *PatternService) DetectPatterns(ctx context.Context, scans []dto.InvoiceScan) *dto.PatternReport {
	buckets := make(map[string]*priceBucket)
	tallies := make(map[string]*supplierTally)

	for _, scan := range scans {
		scannedAt := scan.ScannedAt
		if scannedAt.IsZero() {
			scannedAt = time.Now()
		}

		tally := tallies[scan.Supplier]
		if tally == nil {
			tally = &supplierTally{}
			tallies[scan.Supplier] = tally
		}
		tally.productsScanned += scan.ProductsScanned

		for _, variation := range scan.Variations {
			if math.Abs(variation.DiffPercent) <= s.cfg.MinDeviationPct {
				continue
			}
			tally.anomalies++

			key := NormalizeName(variation.ProductName) + "|" + scan.Supplier
			bucket := buckets[key]
			if bucket == nil {
				bucket = &priceBucket{
					productName:    variation.ProductName,
					normalizedName: NormalizeName(variation.ProductName),
					supplier:       scan.Supplier,
				}
				buckets[key] = bucket
			}
			bucket.occurrences = append(bucket.occurrences, models.PriceOccurrence{
				InvoicePrice: variation.InvoicePrice,
				DiffPercent:  variation.DiffPercent,
				TotalImpact:  variation.TotalImpact,
				ScannedAt:    scannedAt,
			})
		}
	}

	var patterns []models.AnomalyPattern
	for _, bucket := range buckets {
		if pattern, ok := s.buildPattern(bucket); ok {
			patterns = append(patterns, pattern)
		}
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Supplier != patterns[j].Supplier {
			return patterns[i].Supplier < patterns[j].Supplier
		}
		return patterns[i].ProductName < patterns[j].ProductName
	})

	suggestions := s.emitSuggestions(ctx, patterns)
	insights := s.supplierInsights(patterns, tallies)

	return &dto.PatternReport{
		Patterns:    patterns,
		Suggestions: suggestions,
		Insights:    insights,
	}
}

// buildPattern accepts a bucket only if it recurs and the invoiced prices are
// consistent: CoV = std/mean below the configured ceiling means a real price
// change rather than noise.
func (s *PatternService) buildPattern(bucket *priceBucket) (models.AnomalyPattern, bool) {
	n := len(bucket.occurrences)
	if n < s.cfg.MinOccurrences {
		return models.AnomalyPattern{}, false
	}

	var sum, pctSum, impactSum float64
	for _, occ := range bucket.occurrences {
		sum += occ.InvoicePrice
		pctSum += occ.DiffPercent
		impactSum += occ.TotalImpact
	}
	mean := sum / float64(n)
	if mean <= 0 {
		return models.AnomalyPattern{}, false
	}

	var variance float64
	for _, occ := range bucket.occurrences {
		variance += (occ.InvoicePrice - mean) * (occ.InvoicePrice - mean)
	}
	std := math.Sqrt(variance / float64(n))
	cov := std / mean
	if cov >= s.cfg.MaxCoV {
		return models.AnomalyPattern{}, false
	}

	occurrenceBonus := math.Min(0.2, float64(n)*0.1)
	confidence := math.Min(1.0, 0.6+occurrenceBonus+(1-cov)*0.2)

	recent := make([]models.PriceOccurrence, len(bucket.occurrences))
	copy(recent, bucket.occurrences)
	sort.Slice(recent, func(i, j int) bool { return recent[i].ScannedAt.After(recent[j].ScannedAt) })
	if len(recent) > evidenceTrailSize {
		recent = recent[:evidenceTrailSize]
	}

	return models.AnomalyPattern{
		ProductName:   bucket.productName,
		Supplier:      bucket.supplier,
		Occurrences:   n,
		MeanPrice:     mean,
		Consistency:   cov,
		AvgPctChange:  pctSum / float64(n),
		TotalImpact:   impactSum,
		Confidence:    confidence,
		RecentHistory: recent,
	}, true
}

// emitSuggestions turns confident patterns into persisted, non-binding price
// update suggestions. Persistence failure is logged and the suggestions are
// still returned to the caller.
func (s *PatternService) emitSuggestions(ctx context.Context, patterns []models.AnomalyPattern) []dto.SuggestionResponse {
	var toPersist []*models.PriceUpdateSuggestion
	now := time.Now()

	for _, pattern := range patterns {
		if pattern.Confidence < s.cfg.MinConfidence {
			continue
		}

		suggestion := &models.PriceUpdateSuggestion{
			ID:                      uuid.New(),
			ProductName:             pattern.ProductName,
			Supplier:                pattern.Supplier,
			ProposedPrice:           math.Round(pattern.MeanPrice*100) / 100,
			Confidence:              pattern.Confidence,
			Tier:                    s.tierFor(pattern.Confidence),
			RequiresHumanValidation: true,
			AutoApply:               false,
			Status:                  models.SuggestionPendingValidation,
			CreatedAt:               now,
		}

		ref, err := s.catalog.GetActiveByIdentity(ctx, NormalizeName(pattern.ProductName), pattern.Supplier, models.ScopeGeneral)
		if err != nil {
			s.logger.Warn("Failed to look up current catalog price", zap.Error(err))
		} else if ref != nil {
			current := ref.UnitPrice
			suggestion.CurrentPrice = &current
		}

		toPersist = append(toPersist, suggestion)
	}

	if len(toPersist) > 0 {
		if err := s.suggestions.CreateBatch(ctx, toPersist); err != nil {
			s.logger.Warn("Failed to persist price update suggestions", zap.Error(err))
		}
	}

	responses := make([]dto.SuggestionResponse, len(toPersist))
	for i, suggestion := range toPersist {
		responses[i] = suggestionResponse(suggestion)
	}
	return responses
}

func (s *PatternService) tierFor(confidence float64) string {
	switch {
	case confidence >= s.cfg.StrongTier:
		return models.TierStrong
	case confidence >= s.cfg.ModerateTier:
		return models.TierModerate
	default:
		return models.TierWeak
	}
}

func (s *PatternService) supplierInsights(patterns []models.AnomalyPattern, tallies map[string]*supplierTally) []dto.SupplierInsight {
	type rollup struct {
		highConfidence int
		impact         float64
	}
	rollups := make(map[string]*rollup)
	for _, pattern := range patterns {
		r := rollups[pattern.Supplier]
		if r == nil {
			r = &rollup{}
			rollups[pattern.Supplier] = r
		}
		if pattern.Confidence >= s.cfg.StrongTier {
			r.highConfidence++
		}
		r.impact += math.Abs(pattern.TotalImpact)
	}

	var insights []dto.SupplierInsight
	for supplier, tally := range tallies {
		insight := dto.SupplierInsight{
			Supplier:        supplier,
			ProductsScanned: tally.productsScanned,
			Anomalies:       tally.anomalies,
		}
		if tally.productsScanned > 0 {
			insight.AnomalyRate = float64(tally.anomalies) / float64(tally.productsScanned)
		}
		if r := rollups[supplier]; r != nil {
			insight.HighConfidencePatterns = r.highConfidence
			insight.CumulativeImpact = r.impact
			insight.HighFinancialPriority = r.impact > s.cfg.PriorityImpact
		}
		switch {
		case insight.HighConfidencePatterns >= s.cfg.UrgentPatterns:
			insight.Recommendation = "urgent catalog review"
		case insight.HighConfidencePatterns >= 1:
			insight.Recommendation = "heightened monitoring"
		}
		insights = append(insights, insight)
	}
	sort.Slice(insights, func(i, j int) bool { return insights[i].Supplier < insights[j].Supplier })

	return insights
}

// ListSuggestions returns persisted suggestions, optionally filtered by
// review status. Storage failure degrades to an empty list.
func (s *PatternService) ListSuggestions(ctx context.Context, status *models.SuggestionStatus) []dto.SuggestionResponse {
	suggestions, err := s.suggestions.List(ctx, status)
	if err != nil {
		s.logger.Warn("Failed to list suggestions", zap.Error(err))
		return []dto.SuggestionResponse{}
	}

	responses := make([]dto.SuggestionResponse, len(suggestions))
	for i, suggestion := range suggestions {
		responses[i] = suggestionResponse(suggestion)
	}
	return responses
}

// ReviewSuggestion records the human decision on a suggestion. This is the
// only mutation a suggestion ever receives; applying the price to the catalog
// remains a separate, explicitly human-triggered catalog operation.
func (s *PatternService) ReviewSuggestion(ctx context.Context, id uuid.UUID, decision string, notes *string) (*dto.SuggestionResponse, error) {
	ok, err := s.suggestions.MarkReviewed(ctx, id, decision, notes, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSuggestionNotFound
	}

	suggestion, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if suggestion == nil {
		return nil, ErrSuggestionNotFound
	}

	response := suggestionResponse(suggestion)
	return &response, nil
}

func suggestionResponse(s *models.PriceUpdateSuggestion) dto.SuggestionResponse {
	response := dto.SuggestionResponse{
		ID:                      s.ID.String(),
		ProductName:             s.ProductName,
		Supplier:                s.Supplier,
		CurrentPrice:            s.CurrentPrice,
		ProposedPrice:           s.ProposedPrice,
		Confidence:              s.Confidence,
		Tier:                    s.Tier,
		RequiresHumanValidation: s.RequiresHumanValidation,
		AutoApply:               s.AutoApply,
		Status:                  string(s.Status),
		Decision:                s.Decision,
		Notes:                   s.Notes,
		CreatedAt:               s.CreatedAt.Format(time.RFC3339),
	}
	if s.ReviewedAt != nil {
		reviewed := s.ReviewedAt.Format(time.RFC3339)
		response.ReviewedAt = &reviewed
	}
	return response
}
