package handlers

import (
	"errors"

	"facturo/internal/dto"
	"facturo/internal/models"
	"facturo/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatternHandler struct {
	patternService *service.PatternService
	logger         *zap.Logger
}

func NewPatternHandler(patternService *service.PatternService, logger *zap.Logger) *PatternHandler {
	return &PatternHandler{
		patternService: patternService,
		logger:         logger,
	}
}

// Detect mines a batch of scanned invoices for recurring price deviations
// and returns patterns, catalog update suggestions and supplier insights.
func (h *PatternHandler) Detect(c *fiber.Ctx) error {
	var req dto.PatternDetectRequest
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

	report := h.patternService.DetectPatterns(c.Context(), req.Scans)
	return c.JSON(report)
}

func (h *PatternHandler) ListSuggestions(c *fiber.Ctx) error {
	var status *models.SuggestionStatus
	if v := c.Query("status"); v != "" {
		s := models.SuggestionStatus(v)
		if s != models.SuggestionPendingValidation && s != models.SuggestionReviewed {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown status",
			})
		}
		status = &s
	}

	suggestions := h.patternService.ListSuggestions(c.Context(), status)
	return c.JSON(fiber.Map{
		"total":       len(suggestions),
		"suggestions": suggestions,
	})
}

func (h *PatternHandler) ReviewSuggestion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid suggestion ID",
		})
	}

	var req dto.ReviewSuggestionRequest
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

	suggestion, err := h.patternService.ReviewSuggestion(c.Context(), id, req.Decision, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrSuggestionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Suggestion not found or already reviewed",
			})
		}
		h.logger.Error("Failed to review suggestion", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to review suggestion",
		})
	}
	return c.JSON(suggestion)
}
