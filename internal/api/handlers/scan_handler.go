package handlers

import (
	"errors"

	"facturo/internal/dto"
	"facturo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScanHandler struct {
	comparisonService     *service.ComparisonService
	reconciliationService *service.ReconciliationService
	logger                *zap.Logger
}

func NewScanHandler(
	comparisonService *service.ComparisonService,
	reconciliationService *service.ReconciliationService,
	logger *zap.Logger,
) *ScanHandler {
	return &ScanHandler{
		comparisonService:     comparisonService,
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// CompareScan compares OCR-extracted invoice lines against the catalog
// visible from the given restaurant scope.
func (h *ScanHandler) CompareScan(c *fiber.Ctx) error {
	var req dto.ScanCompareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	comparison := h.comparisonService.CompareInvoice(c.Context(), req.Restaurant, req.Supplier, req.Items)
	return c.JSON(comparison)
}

// ReconcileOrder diffs a scanned invoice against one purchase order.
func (h *ScanHandler) ReconcileOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order ID",
		})
	}

	var req dto.ReconcileOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.reconciliationService.ReconcileOrder(c.Context(), orderID, req.Supplier, req.Items)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Order not found",
			})
		}
		h.logger.Error("Failed to reconcile order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reconcile order",
		})
	}

	return c.JSON(result)
}
