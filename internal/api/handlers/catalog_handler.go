package handlers

import (
	"errors"

	"facturo/internal/dto"
	"facturo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) ListPrices(c *fiber.Ctx) error {
	var supplier *string
	if v := c.Query("supplier"); v != "" {
		supplier = &v
	}

	prices := h.catalogService.ListReferencePrices(c.Context(), supplier)
	return c.JSON(fiber.Map{
		"total":  len(prices),
		"prices": prices,
	})
}

func (h *CatalogHandler) UpsertPrice(c *fiber.Ctx) error {
	var req dto.UpsertReferencePriceRequest
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

	price, err := h.catalogService.UpsertReferencePrice(c.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to upsert reference price", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upsert reference price",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(price)
}

func (h *CatalogHandler) DeletePrice(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reference price ID",
		})
	}
	cascade := c.QueryBool("cascade")

	if err := h.catalogService.DeleteReferencePrice(c.Context(), id, cascade); err != nil {
		if errors.Is(err, service.ErrReferenceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Reference price not found",
			})
		}
		h.logger.Error("Failed to delete reference price", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete reference price",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) ListPending(c *fiber.Ctx) error {
	pending := h.catalogService.ListPendingProducts(c.Context())
	return c.JSON(fiber.Map{
		"total":   len(pending),
		"pending": pending,
	})
}

// ValidatePending promotes a quarantined product into the active catalog.
func (h *CatalogHandler) ValidatePending(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pending product ID",
		})
	}

	price, err := h.catalogService.ValidatePendingProduct(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPendingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Pending product not found",
			})
		}
		h.logger.Error("Failed to validate pending product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to validate pending product",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(price)
}

func (h *CatalogHandler) RejectPending(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pending product ID",
		})
	}

	if err := h.catalogService.RejectPendingProduct(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrPendingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Pending product not found",
			})
		}
		h.logger.Error("Failed to reject pending product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reject pending product",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
