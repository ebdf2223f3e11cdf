package service

import (
	"context"
	"testing"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func patternConfig() *config.PatternConfig {
	return &config.PatternConfig{
		MinDeviationPct: 5.0,
		MinOccurrences:  2,
		MaxCoV:          0.20,
		MinConfidence:   0.6,
		StrongTier:      0.85,
		ModerateTier:    0.70,
		UrgentPatterns:  3,
		PriorityImpact:  1000.0,
	}
}

func newPatternService(suggestions *fakeSuggestions, catalog *fakeCatalog) *PatternService {
	return NewPatternService(suggestions, catalog, patternConfig(), zap.NewNop())
}

func scanWith(supplier string, scanned int, day int, variations ...models.PriceComparisonResult) dto.InvoiceScan {
	return dto.InvoiceScan{
		Supplier:        supplier,
		ScannedAt:       time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC),
		ProductsScanned: scanned,
		Variations:      variations,
	}
}

func variation(product string, price, diffPct, impact float64) models.PriceComparisonResult {
	return models.PriceComparisonResult{
		ProductName:  product,
		Status:       models.ComparisonOverprice,
		InvoicePrice: price,
		DiffPercent:  diffPct,
		TotalImpact:  impact,
	}
}

func TestDetectPatternsStablePricesFormPattern(t *testing.T) {
	suggestions := newFakeSuggestions()
	catalog := &fakeCatalog{refs: []*models.ReferencePrice{
		refPrice("Bavettes de bœuf", "Metro", models.ScopeGeneral, 9.20),
	}}
	svc := newPatternService(suggestions, catalog)

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1, variation("Bavettes de bœuf", 10.00, 8.7, 40.0)),
		scanWith("Metro", 12, 8, variation("Bavettes de boeuf", 10.05, 9.2, 50.0)),
	})

	require.Len(t, report.Patterns, 1)
	pattern := report.Patterns[0]
	assert.Equal(t, 2, pattern.Occurrences)
	assert.InDelta(t, 10.025, pattern.MeanPrice, 0.001)
	assert.Less(t, pattern.Consistency, 0.20)
	assert.GreaterOrEqual(t, pattern.Confidence, 0.85)
	assert.InDelta(t, 90.0, pattern.TotalImpact, 0.001)
	assert.Len(t, pattern.RecentHistory, 2)
	// Evidence trail is newest first.
	assert.True(t, pattern.RecentHistory[0].ScannedAt.After(pattern.RecentHistory[1].ScannedAt))

	require.Len(t, report.Suggestions, 1)
	suggestion := report.Suggestions[0]
	assert.InDelta(t, 10.03, suggestion.ProposedPrice, 0.001)
	assert.Equal(t, models.TierStrong, suggestion.Tier)
	assert.True(t, suggestion.RequiresHumanValidation)
	assert.False(t, suggestion.AutoApply)
	require.NotNil(t, suggestion.CurrentPrice)
	assert.Equal(t, 9.20, *suggestion.CurrentPrice)
	assert.Len(t, suggestions.suggestions, 1)
}

func TestDetectPatternsVolatilePricesRejected(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1, variation("Bavettes de bœuf", 10.00, 8.0, 40.0)),
		scanWith("Metro", 10, 8, variation("Bavettes de bœuf", 15.00, 62.0, 60.0)),
	})

	assert.Empty(t, report.Patterns)
	assert.Empty(t, report.Suggestions)
}

func TestDetectPatternsSingleOccurrenceRejected(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1, variation("Bavettes de bœuf", 10.00, 8.0, 40.0)),
	})

	assert.Empty(t, report.Patterns)
}

func TestDetectPatternsIgnoresSmallDeviations(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1, variation("Farine T55", 1.00, 4.0, 1.0)),
		scanWith("Metro", 10, 8, variation("Farine T55", 1.00, 4.0, 1.0)),
	})

	assert.Empty(t, report.Patterns)
	require.Len(t, report.Insights, 1)
	assert.Equal(t, 0, report.Insights[0].Anomalies)
}

func TestDetectPatternsTighterPricesScoreHigher(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1,
			variation("Bavettes de bœuf", 32.00, 7.0, 10.0),
			variation("Saumon frais", 30.00, 9.0, 10.0),
		),
		scanWith("Metro", 10, 8,
			variation("Bavettes de bœuf", 32.50, 8.0, 10.0),
			variation("Saumon frais", 35.00, 12.0, 10.0),
		),
	})

	require.Len(t, report.Patterns, 2)
	byProduct := map[string]models.AnomalyPattern{}
	for _, p := range report.Patterns {
		byProduct[p.ProductName] = p
	}
	assert.Greater(t, byProduct["Bavettes de bœuf"].Confidence, byProduct["Saumon frais"].Confidence)
}

func TestDetectPatternsSupplierInsights(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 20, 1, variation("Bavettes de bœuf", 10.00, 8.0, 700.0)),
		scanWith("Metro", 20, 8, variation("Bavettes de bœuf", 10.05, 8.5, 650.0)),
		scanWith("Pomona", 15, 2),
	})

	require.Len(t, report.Insights, 2)
	byName := map[string]dto.SupplierInsight{}
	for _, insight := range report.Insights {
		byName[insight.Supplier] = insight
	}

	metro := byName["Metro"]
	assert.Equal(t, 40, metro.ProductsScanned)
	assert.Equal(t, 2, metro.Anomalies)
	assert.InDelta(t, 0.05, metro.AnomalyRate, 0.001)
	assert.Equal(t, 1, metro.HighConfidencePatterns)
	assert.Equal(t, "heightened monitoring", metro.Recommendation)
	assert.True(t, metro.HighFinancialPriority)

	pomona := byName["Pomona"]
	assert.Equal(t, 0, pomona.Anomalies)
	assert.Empty(t, pomona.Recommendation)
	assert.False(t, pomona.HighFinancialPriority)
}

func TestReviewSuggestion(t *testing.T) {
	suggestions := newFakeSuggestions()
	svc := newPatternService(suggestions, &fakeCatalog{})

	report := svc.DetectPatterns(context.Background(), []dto.InvoiceScan{
		scanWith("Metro", 10, 1, variation("Bavettes de bœuf", 10.00, 8.0, 40.0)),
		scanWith("Metro", 10, 8, variation("Bavettes de bœuf", 10.05, 8.5, 50.0)),
	})
	require.Len(t, report.Suggestions, 1)
	id, err := uuid.Parse(report.Suggestions[0].ID)
	require.NoError(t, err)

	notes := "validated against supplier confirmation"
	reviewed, err := svc.ReviewSuggestion(context.Background(), id, "accepted", &notes)
	require.NoError(t, err)
	assert.Equal(t, string(models.SuggestionReviewed), reviewed.Status)
	require.NotNil(t, reviewed.Decision)
	assert.Equal(t, "accepted", *reviewed.Decision)
	require.NotNil(t, reviewed.ReviewedAt)

	// A suggestion is reviewed exactly once.
	_, err = svc.ReviewSuggestion(context.Background(), id, "rejected", nil)
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestReviewSuggestionUnknownID(t *testing.T) {
	svc := newPatternService(newFakeSuggestions(), &fakeCatalog{})

	_, err := svc.ReviewSuggestion(context.Background(), uuid.New(), "accepted", nil)
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}
