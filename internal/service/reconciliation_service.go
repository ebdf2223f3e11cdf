package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrOrderNotFound = errors.New("order not found")

// ReconciliationService diffs a scanned invoice against the purchase order it
// is supposed to settle.
type ReconciliationService struct {
	orders  OrderStore
	matcher FuzzyMatcher
	cfg     *config.MatchingConfig
	logger  *zap.Logger
}

func NewReconciliationService(
	orders OrderStore,
	matcher FuzzyMatcher,
	cfg *config.MatchingConfig,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		orders:  orders,
		matcher: matcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// ReconcileOrder matches invoice lines against the order's lines and returns
// a line-by-line diff plus an attention verdict. Order items are matched
// greedily: exact normalized name first, then the best fuzzy candidate above
// the acceptance threshold.
func (s *ReconciliationService) ReconcileOrder(
	ctx context.Context,
	orderID uuid.UUID,
	invoiceSupplier string,
	items []models.InvoiceLineItem,
) (*dto.OrderReconciliation, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	supplierMatches := invoiceSupplier == "" || strings.EqualFold(order.Supplier, invoiceSupplier)
	if !supplierMatches {
		// Non-blocking: the operator may be reconciling a relabelled invoice.
		s.logger.Warn("Supplier mismatch between order and invoice",
			zap.String("order_supplier", order.Supplier),
			zap.String("invoice_supplier", invoiceSupplier),
		)
	}

	for i := range items {
		items[i] = sanitizeLineItem(items[i])
	}

	used := make([]bool, len(items))
	var lines []dto.LineReconciliation

	for _, orderLine := range order.Lines {
		idx, score := s.matchInvoiceLine(orderLine.ProductName, items, used)
		if idx < 0 {
			lines = append(lines, dto.LineReconciliation{
				Status:        models.LineMissingInInvoice,
				OrderProduct:  orderLine.ProductName,
				OrderQuantity: orderLine.Quantity,
				OrderPrice:    orderLine.UnitPrice,
			})
			continue
		}

		used[idx] = true
		item := items[idx]
		lines = append(lines, dto.LineReconciliation{
			Status:          lineStatus(orderLine, item, s.cfg.QuantityTolerance),
			OrderProduct:    orderLine.ProductName,
			InvoiceProduct:  item.Name,
			MatchScore:      score,
			OrderQuantity:   orderLine.Quantity,
			InvoiceQuantity: item.Quantity,
			OrderPrice:      orderLine.UnitPrice,
			InvoicePrice:    item.UnitPrice,
		})
	}

	for i, item := range items {
		if used[i] {
			continue
		}
		lines = append(lines, dto.LineReconciliation{
			Status:          models.LineExtraInInvoice,
			InvoiceProduct:  item.Name,
			InvoiceQuantity: item.Quantity,
			InvoicePrice:    item.UnitPrice,
		})
	}

	invoiceTotal := invoiceTotalOf(items)
	summary := summarize(lines, order.Total, invoiceTotal, supplierMatches)

	requiresAttention := summary.MissingInvoice > 0 ||
		summary.ExtraInvoice > 0 ||
		summary.QuantityDiffs > 0 ||
		summary.BothDiffs > 0 ||
		math.Abs(order.Total-invoiceTotal) > s.cfg.TotalTolerance

	return &dto.OrderReconciliation{
		OrderID:           order.ID.String(),
		OrderSupplier:     order.Supplier,
		InvoiceSupplier:   invoiceSupplier,
		RequiresAttention: requiresAttention,
		Lines:             lines,
		Summary:           summary,
	}, nil
}

// matchInvoiceLine returns the index of the best unconsumed invoice line for
// an order product, or -1 when nothing scores above the threshold.
func (s *ReconciliationService) matchInvoiceLine(orderProduct string, items []models.InvoiceLineItem, used []bool) (int, float64) {
	orderNorm := NormalizeName(orderProduct)
	if orderNorm != "" {
		for i, item := range items {
			if !used[i] && NormalizeName(item.Name) == orderNorm {
				return i, 1.0
			}
		}
	}

	var (
		candidates []string
		indexes    []int
	)
	for i, item := range items {
		if !used[i] {
			candidates = append(candidates, item.Name)
			indexes = append(indexes, i)
		}
	}
	if len(candidates) == 0 {
		return -1, 0
	}

	idx, score, ok := s.matcher.Match(orderProduct, candidates)
	if !ok {
		return -1, 0
	}
	return indexes[idx], score
}

func lineStatus(orderLine models.OrderLineItem, item models.InvoiceLineItem, tolerance float64) models.LineMatchStatus {
	quantityDiff := math.Abs(orderLine.Quantity-item.Quantity) > tolerance
	priceDiff := math.Abs(orderLine.UnitPrice-item.UnitPrice) > tolerance

	switch {
	case quantityDiff && priceDiff:
		return models.LineBothDifferent
	case quantityDiff:
		return models.LineQuantityDifference
	case priceDiff:
		return models.LinePriceDifference
	default:
		return models.LinePerfectMatch
	}
}

func invoiceTotalOf(items []models.InvoiceLineItem) float64 {
	var total float64
	for _, item := range items {
		if item.LineTotal != 0 {
			total += item.LineTotal
		} else {
			total += item.Quantity * item.UnitPrice
		}
	}
	return total
}

func summarize(lines []dto.LineReconciliation, orderTotal, invoiceTotal float64, supplierMatches bool) dto.ReconciliationSummary {
	summary := dto.ReconciliationSummary{
		TotalLines:      len(lines),
		OrderTotal:      orderTotal,
		InvoiceTotal:    invoiceTotal,
		SupplierMatches: supplierMatches,
	}

	for _, line := range lines {
		switch line.Status {
		case models.LinePerfectMatch:
			summary.PerfectMatches++
		case models.LinePriceDifference:
			summary.PriceDiffs++
		case models.LineQuantityDifference:
			summary.QuantityDiffs++
		case models.LineBothDifferent:
			summary.BothDiffs++
		case models.LineMissingInInvoice:
			summary.MissingInvoice++
		case models.LineExtraInInvoice:
			summary.ExtraInvoice++
		}
	}

	if summary.TotalLines > 0 {
		summary.MatchRate = float64(summary.PerfectMatches) / float64(summary.TotalLines)
	}

	return summary
}
