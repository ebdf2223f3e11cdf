package api

import (
	"facturo/internal/api/handlers"
	"facturo/pkg/auth"
	"facturo/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	scanHandler *handlers.ScanHandler,
	catalogHandler *handlers.CatalogHandler,
	anomalyHandler *handlers.AnomalyHandler,
	patternHandler *handlers.PatternHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	// Invoice scans
	scans := protected.Group("/scans")
	scans.Post("/compare", scanHandler.CompareScan)

	// Purchase orders
	orders := protected.Group("/orders")
	orders.Post("/:id/reconcile", scanHandler.ReconcileOrder)

	// Catalog
	catalog := protected.Group("/catalog")
	catalog.Get("/prices", catalogHandler.ListPrices)
	catalog.Post("/prices", catalogHandler.UpsertPrice)
	catalog.Delete("/prices/:id", catalogHandler.DeletePrice)
	catalog.Get("/pending", catalogHandler.ListPending)
	catalog.Post("/pending/:id/validate", catalogHandler.ValidatePending)
	catalog.Delete("/pending/:id", catalogHandler.RejectPending)

	// Anomaly workflow
	anomalies := protected.Group("/anomalies")
	anomalies.Post("/detect", anomalyHandler.Detect)
	anomalies.Get("", anomalyHandler.List)
	anomalies.Get("/stats", anomalyHandler.Stats)
	anomalies.Get("/:id", anomalyHandler.Get)
	anomalies.Post("/:id/send-mail", anomalyHandler.SendMail)
	anomalies.Post("/:id/credit-accepted", anomalyHandler.CreditAccepted)
	anomalies.Post("/:id/credit-refused", anomalyHandler.CreditRefused)
	anomalies.Patch("/:id/status", anomalyHandler.UpdateStatus)
	anomalies.Delete("/:id", anomalyHandler.Delete)

	// Pattern intelligence
	patterns := protected.Group("/patterns")
	patterns.Post("/detect", patternHandler.Detect)
	patterns.Get("/suggestions", patternHandler.ListSuggestions)
	patterns.Post("/suggestions/:id/review", patternHandler.ReviewSuggestion)

	return app
}
