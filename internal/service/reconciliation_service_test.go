package service

import (
	"context"
	"testing"

	"facturo/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func demoOrder() *models.Order {
	id := uuid.New()
	return &models.Order{
		ID:       id,
		Supplier: "Metro",
		Status:   "confirmed",
		Total:    171.15,
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), OrderID: id, ProductName: "Bavettes de bœuf", Quantity: 5, UnitPrice: 30.00},
			{ID: uuid.New(), OrderID: id, ProductName: "Crème liquide 35%", Quantity: 5, UnitPrice: 4.23},
		},
	}
}

func newReconciliationService(order *models.Order) *ReconciliationService {
	orders := &fakeOrders{orders: map[uuid.UUID]*models.Order{}}
	if order != nil {
		orders.orders[order.ID] = order
	}
	return NewReconciliationService(orders, NewBlendedMatcher(0.6), matchingConfig(), zap.NewNop())
}

func TestReconcileOrderPerfectMatch(t *testing.T) {
	order := demoOrder()
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Metro", []models.InvoiceLineItem{
		{Name: "Bavettes de boeuf", Quantity: 5, UnitPrice: 30.00},
		{Name: "Creme liquide 35%", Quantity: 5, UnitPrice: 4.23},
	})
	require.NoError(t, err)

	assert.False(t, result.RequiresAttention)
	assert.True(t, result.Summary.SupplierMatches)
	assert.Equal(t, 2, result.Summary.PerfectMatches)
	assert.Equal(t, 1.0, result.Summary.MatchRate)
	assert.InDelta(t, order.Total, result.Summary.InvoiceTotal, 0.001)
	for _, line := range result.Lines {
		assert.Equal(t, models.LinePerfectMatch, line.Status)
	}
}

func TestReconcileOrderUnknownOrder(t *testing.T) {
	svc := newReconciliationService(nil)

	_, err := svc.ReconcileOrder(context.Background(), uuid.New(), "Metro", nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReconcileOrderMissingAndExtraLines(t *testing.T) {
	order := demoOrder()
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Metro", []models.InvoiceLineItem{
		{Name: "Bavettes de boeuf", Quantity: 5, UnitPrice: 30.00},
		{Name: "Truffe noire", Quantity: 1, UnitPrice: 850.00},
	})
	require.NoError(t, err)

	assert.True(t, result.RequiresAttention)
	assert.Equal(t, 1, result.Summary.PerfectMatches)
	assert.Equal(t, 1, result.Summary.MissingInvoice)
	assert.Equal(t, 1, result.Summary.ExtraInvoice)
	assert.Equal(t, 3, result.Summary.TotalLines)

	var statuses []models.LineMatchStatus
	for _, line := range result.Lines {
		statuses = append(statuses, line.Status)
	}
	assert.Contains(t, statuses, models.LineMissingInInvoice)
	assert.Contains(t, statuses, models.LineExtraInInvoice)
}

func TestReconcileOrderQuantityAndPriceDifferences(t *testing.T) {
	order := demoOrder()
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Metro", []models.InvoiceLineItem{
		{Name: "Bavettes de boeuf", Quantity: 4, UnitPrice: 30.00},
		{Name: "Creme liquide 35%", Quantity: 5, UnitPrice: 4.90},
	})
	require.NoError(t, err)

	assert.True(t, result.RequiresAttention)
	assert.Equal(t, 1, result.Summary.QuantityDiffs)
	assert.Equal(t, 1, result.Summary.PriceDiffs)
	assert.Equal(t, 0, result.Summary.PerfectMatches)
}

func TestReconcileOrderBothDifferent(t *testing.T) {
	order := demoOrder()
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "", []models.InvoiceLineItem{
		{Name: "Bavettes de boeuf", Quantity: 3, UnitPrice: 36.87},
		{Name: "Creme liquide 35%", Quantity: 5, UnitPrice: 4.23},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.BothDiffs)
	assert.True(t, result.RequiresAttention)
	// Empty invoice supplier means no supplier check.
	assert.True(t, result.Summary.SupplierMatches)
}

func TestReconcileOrderFuzzyMatchesRelabelledLine(t *testing.T) {
	id := uuid.New()
	order := &models.Order{
		ID:       id,
		Supplier: "Pomona",
		Total:    18.90,
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), OrderID: id, ProductName: "Saumon frais entier", Quantity: 1, UnitPrice: 18.90},
		},
	}
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Pomona", []models.InvoiceLineItem{
		{Name: "Saumon frais", Quantity: 1, UnitPrice: 18.90},
	})
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	line := result.Lines[0]
	assert.Equal(t, models.LinePerfectMatch, line.Status)
	assert.Greater(t, line.MatchScore, 0.6)
	assert.Less(t, line.MatchScore, 1.0)
	assert.False(t, result.RequiresAttention)
}

func TestReconcileOrderSupplierMismatchIsNonBlocking(t *testing.T) {
	order := demoOrder()
	svc := newReconciliationService(order)

	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Pomona", []models.InvoiceLineItem{
		{Name: "Bavettes de boeuf", Quantity: 5, UnitPrice: 30.00},
		{Name: "Creme liquide 35%", Quantity: 5, UnitPrice: 4.23},
	})
	require.NoError(t, err)

	assert.False(t, result.Summary.SupplierMatches)
	// Mismatch alone does not flag the reconciliation.
	assert.False(t, result.RequiresAttention)
}

func TestReconcileOrderTotalDriftFlagsAttention(t *testing.T) {
	id := uuid.New()
	order := &models.Order{
		ID:       id,
		Supplier: "Metro",
		Total:    100.00,
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), OrderID: id, ProductName: "Farine T55", Quantity: 100, UnitPrice: 1.00},
		},
	}
	svc := newReconciliationService(order)

	// Same unit price, same quantity, but the invoice line total disagrees
	// with the order total beyond the tolerance.
	result, err := svc.ReconcileOrder(context.Background(), order.ID, "Metro", []models.InvoiceLineItem{
		{Name: "Farine T55", Quantity: 100, UnitPrice: 1.00, LineTotal: 110.00},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.PerfectMatches)
	assert.InDelta(t, 110.00, result.Summary.InvoiceTotal, 0.001)
	assert.True(t, result.RequiresAttention)
}
