package main

import (
	"context"
	"log"
	"time"

	"facturo/internal/models"
	"facturo/internal/repository"
	"facturo/internal/service"
	"facturo/pkg/auth"
	"facturo/pkg/config"
	"facturo/pkg/logger"
	"facturo/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reference_prices (
		id UUID PRIMARY KEY,
		product_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		supplier TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'General',
		catalog_code TEXT NOT NULL DEFAULT '',
		unit_price DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reference_prices_identity
		ON reference_prices (normalized_name, supplier, scope) WHERE active`,
	`CREATE TABLE IF NOT EXISTS pending_products (
		id UUID PRIMARY KEY,
		product_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		supplier TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'General',
		unit_price DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'scanner',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (normalized_name, supplier, scope)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		supplier TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed',
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_line_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_name TEXT NOT NULL,
		quantity DOUBLE PRECISION NOT NULL,
		unit_price DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS anomalies (
		id UUID PRIMARY KEY,
		product_name TEXT NOT NULL,
		supplier TEXT NOT NULL,
		restaurant TEXT NOT NULL,
		invoice_price DOUBLE PRECISION NOT NULL,
		catalog_price DOUBLE PRECISION NOT NULL,
		ecart_euros DOUBLE PRECISION NOT NULL,
		ecart_pourcent DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'detectee',
		comment TEXT,
		supplier_reply TEXT,
		invoice_id UUID,
		detected_at TIMESTAMPTZ NOT NULL,
		mail_sent_at TIMESTAMPTZ,
		response_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS anomalies_status_idx ON anomalies (status)`,
	`CREATE TABLE IF NOT EXISTS price_update_suggestions (
		id UUID PRIMARY KEY,
		product_name TEXT NOT NULL,
		supplier TEXT NOT NULL,
		current_price DOUBLE PRECISION,
		proposed_price DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		tier TEXT NOT NULL,
		requires_human_validation BOOLEAN NOT NULL DEFAULT TRUE,
		auto_apply BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'pending_validation',
		decision TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		reviewed_at TIMESTAMPTZ
	)`,
}

type catalogSeed struct {
	name     string
	supplier string
	price    float64
	unit     string
	category string
	code     string
}

var demoCatalog = []catalogSeed{
	{"Bavettes de bœuf", "Metro", 30.00, "kg", "Viandes", "MET-1042"},
	{"Filet de poulet", "Metro", 12.50, "kg", "Viandes", "MET-2087"},
	{"Saumon frais entier", "Pomona", 18.90, "kg", "Poissons", ""},
	{"Pommes de terre agria", "Pomona", 1.35, "kg", "Légumes", ""},
	{"Crème liquide 35%", "Transgourmet", 4.20, "L", "Crèmerie", "TG-556"},
	{"Beurre doux AOP", "Transgourmet", 9.80, "kg", "Crèmerie", "TG-310"},
	{"Farine T55", "Transgourmet", 0.95, "kg", "Épicerie", ""},
	{"Huile d'olive vierge extra", "Pomona", 8.40, "L", "Épicerie", ""},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Starting database seeding...")

	if err := createSchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to create schema", zap.Error(err))
	}

	catalogRepo := repository.NewCatalogRepository(db, appLogger)
	if err := seedCatalog(ctx, catalogRepo); err != nil {
		appLogger.Fatal("Failed to seed catalog", zap.Error(err))
	}

	if err := seedDemoOrder(ctx, db); err != nil {
		appLogger.Fatal("Failed to seed demo order", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	if err := seedOperator(ctx, userRepo); err != nil {
		appLogger.Fatal("Failed to seed operator account", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func createSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedCatalog(ctx context.Context, repo *repository.CatalogRepository) error {
	now := time.Now()
	for _, item := range demoCatalog {
		ref := &models.ReferencePrice{
			ID:             uuid.New(),
			ProductName:    item.name,
			NormalizedName: service.NormalizeName(item.name),
			Supplier:       item.supplier,
			Scope:          models.ScopeGeneral,
			CatalogCode:    item.code,
			UnitPrice:      item.price,
			Unit:           item.unit,
			Category:       item.category,
			Active:         true,
			UpdatedAt:      now,
		}
		if err := repo.Upsert(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// seedDemoOrder inserts one confirmed order so the reconciliation endpoint
// can be exercised out of the box.
func seedDemoOrder(ctx context.Context, db *pgxpool.Pool) error {
	orderID := uuid.New()
	lines := []models.OrderLineItem{
		{ID: uuid.New(), OrderID: orderID, ProductName: "Bavettes de bœuf", Quantity: 5, UnitPrice: 30.00},
		{ID: uuid.New(), OrderID: orderID, ProductName: "Crème liquide 35%", Quantity: 12, UnitPrice: 4.20},
		{ID: uuid.New(), OrderID: orderID, ProductName: "Farine T55", Quantity: 25, UnitPrice: 0.95},
	}
	total := 0.0
	for _, l := range lines {
		total += l.Quantity * l.UnitPrice
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO orders (id, supplier, status, total, created_at) VALUES ($1, $2, $3, $4, $5)`,
		orderID, "Metro", "confirmed", total, time.Now(),
	); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := db.Exec(ctx,
			`INSERT INTO order_line_items (id, order_id, product_name, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.OrderID, l.ProductName, l.Quantity, l.UnitPrice,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedOperator(ctx context.Context, repo *repository.UserRepository) error {
	existing, err := repo.GetByEmail(ctx, "operator@facturo.local")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := auth.HashPassword("changeme-now")
	if err != nil {
		return err
	}

	now := time.Now()
	return repo.Create(ctx, &models.User{
		ID:        uuid.New(),
		Username:  "operator",
		Email:     "operator@facturo.local",
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
