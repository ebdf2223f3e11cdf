package handlers

import (
	"context"
	"errors"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnomalyHandler struct {
	anomalyService *service.AnomalyService
	logger         *zap.Logger
}

func NewAnomalyHandler(anomalyService *service.AnomalyService, logger *zap.Logger) *AnomalyHandler {
	return &AnomalyHandler{
		anomalyService: anomalyService,
		logger:         logger,
	}
}

func (h *AnomalyHandler) Detect(c *fiber.Ctx) error {
	var req dto.DetectAnomaliesRequest
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

	var invoiceID *uuid.UUID
	if req.InvoiceID != nil {
		parsed, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid invoice ID",
			})
		}
		invoiceID = &parsed
	}

	detected := h.anomalyService.DetectAnomalies(c.Context(), req.Restaurant, req.Supplier, invoiceID, req.Items)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"detected":  len(detected),
		"anomalies": detected,
	})
}

func (h *AnomalyHandler) List(c *fiber.Ctx) error {
	var filter models.AnomalyFilter
	if v := c.Query("status"); v != "" {
		status := models.AnomalyStatus(v)
		if !status.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown status",
			})
		}
		filter.Status = &status
	}
	if v := c.Query("supplier"); v != "" {
		filter.Supplier = &v
	}
	if v := c.Query("restaurant"); v != "" {
		filter.Restaurant = &v
	}

	anomalies := h.anomalyService.ListAnomalies(c.Context(), filter)
	return c.JSON(fiber.Map{
		"total":     len(anomalies),
		"anomalies": anomalies,
	})
}

func (h *AnomalyHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.anomalyService.Stats(c.Context()))
}

func (h *AnomalyHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	anomaly, err := h.anomalyService.GetAnomaly(c.Context(), id)
	if err != nil {
		return h.anomalyError(c, err, "Failed to get anomaly")
	}
	return c.JSON(anomaly)
}

// SendMail renders the French supplier correspondence for one anomaly, sends
// it, and advances the anomaly to mail_envoye.
func (h *AnomalyHandler) SendMail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	var req dto.SendMailRequest
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

	anomaly, err := h.anomalyService.SendMail(c.Context(), id, req.Recipient)
	if err != nil {
		return h.anomalyError(c, err, "Failed to send supplier mail")
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) CreditAccepted(c *fiber.Ctx) error {
	return h.supplierResponse(c, h.anomalyService.MarkCreditAccepted)
}

func (h *AnomalyHandler) CreditRefused(c *fiber.Ctx) error {
	return h.supplierResponse(c, h.anomalyService.MarkCreditRefused)
}

func (h *AnomalyHandler) supplierResponse(
	c *fiber.Ctx,
	mark func(ctx context.Context, id uuid.UUID, req *dto.SupplierReplyRequest) (*dto.AnomalyResponse, error),
) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	var req dto.SupplierReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	anomaly, err := mark(c.Context(), id, &req)
	if err != nil {
		return h.anomalyError(c, err, "Failed to record supplier response")
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	var req dto.UpdateStatusRequest
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

	anomaly, err := h.anomalyService.UpdateStatus(c.Context(), id, &req)
	if err != nil {
		return h.anomalyError(c, err, "Failed to update anomaly status")
	}
	return c.JSON(anomaly)
}

func (h *AnomalyHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid anomaly ID",
		})
	}

	if err := h.anomalyService.DeleteAnomaly(c.Context(), id); err != nil {
		return h.anomalyError(c, err, "Failed to delete anomaly")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AnomalyHandler) anomalyError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrAnomalyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Anomaly not found",
		})
	case errors.Is(err, service.ErrIllegalTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		h.logger.Error(msg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msg,
		})
	}
}
