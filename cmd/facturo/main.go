package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facturo/internal/api"
	"facturo/internal/api/handlers"
	"facturo/internal/repository"
	"facturo/internal/service"
	"facturo/pkg/auth"
	"facturo/pkg/config"
	"facturo/pkg/logger"
	"facturo/pkg/mailer"
	"facturo/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Facturo service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	catalogRepo := repository.NewCatalogRepository(db, appLogger)
	pendingRepo := repository.NewPendingRepository(db, appLogger)
	orderRepo := repository.NewOrderRepository(db, appLogger)
	anomalyRepo := repository.NewAnomalyRepository(db, appLogger)
	suggestionRepo := repository.NewSuggestionRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	comparisonService := service.NewComparisonService(catalogRepo, pendingRepo, &cfg.Matching, appLogger)
	catalogService := service.NewCatalogService(catalogRepo, pendingRepo, appLogger)
	matcher := service.NewBlendedMatcher(cfg.Matching.FuzzyMinScore)
	reconciliationService := service.NewReconciliationService(orderRepo, matcher, &cfg.Matching, appLogger)
	patternService := service.NewPatternService(suggestionRepo, catalogRepo, &cfg.Pattern, appLogger)
	mailSender := mailer.NewSMTPSender(&cfg.Mail, appLogger)
	anomalyService := service.NewAnomalyService(anomalyRepo, catalogRepo, mailSender, &cfg.Anomaly, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	scanHandler := handlers.NewScanHandler(comparisonService, reconciliationService, appLogger)
	catalogHandler := handlers.NewCatalogHandler(catalogService, appLogger)
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService, appLogger)
	patternHandler := handlers.NewPatternHandler(patternService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, scanHandler, catalogHandler, anomalyHandler, patternHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
