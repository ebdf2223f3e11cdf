package repository

import (
	"context"
	"errors"
	"time"

	"facturo/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var referencePriceColumns = []string{
	"id", "product_name", "normalized_name", "supplier", "scope",
	"catalog_code", "unit_price", "unit", "category", "active", "updated_at",
}

type CatalogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCatalogRepository(db *pgxpool.Pool, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveForScope returns active rows visible from the restaurant scope,
// restaurant-scoped entries before General ones so scoped prices win.
func (r *CatalogRepository) ListActiveForScope(ctx context.Context, restaurant string) ([]*models.ReferencePrice, error) {
	query := squirrel.Select(referencePriceColumns...).
		From("reference_prices").
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"scope": []string{restaurant, models.ScopeGeneral}}).
		OrderBy("CASE WHEN scope = 'General' THEN 1 ELSE 0 END", "product_name").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReferencePrices(rows)
}

func (r *CatalogRepository) List(ctx context.Context, supplier *string) ([]*models.ReferencePrice, error) {
	query := squirrel.Select(referencePriceColumns...).
		From("reference_prices").
		Where(squirrel.Eq{"active": true}).
		OrderBy("supplier", "product_name").
		PlaceholderFormat(squirrel.Dollar)
	if supplier != nil {
		query = query.Where(squirrel.Eq{"supplier": *supplier})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReferencePrices(rows)
}

func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReferencePrice, error) {
	query := squirrel.Select(referencePriceColumns...).
		From("reference_prices").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	ref, err := scanReferencePrice(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

func (r *CatalogRepository) GetActiveByIdentity(ctx context.Context, normalizedName, supplier, scope string) (*models.ReferencePrice, error) {
	query := squirrel.Select(referencePriceColumns...).
		From("reference_prices").
		Where(squirrel.Eq{
			"active":          true,
			"normalized_name": normalizedName,
			"supplier":        supplier,
			"scope":           scope,
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	ref, err := scanReferencePrice(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ref, err
}

// Upsert inserts a reference price or updates the existing active row for the
// same (normalized_name, supplier, scope). Relies on the partial unique index
// over active rows, so the one-active-row invariant holds under concurrency.
func (r *CatalogRepository) Upsert(ctx context.Context, ref *models.ReferencePrice) error {
	query := squirrel.Insert("reference_prices").
		Columns(referencePriceColumns...).
		Values(ref.ID, ref.ProductName, ref.NormalizedName, ref.Supplier, ref.Scope,
			ref.CatalogCode, ref.UnitPrice, ref.Unit, ref.Category, ref.Active, ref.UpdatedAt).
		Suffix(`ON CONFLICT (normalized_name, supplier, scope) WHERE active DO UPDATE SET
			product_name = EXCLUDED.product_name,
			catalog_code = EXCLUDED.catalog_code,
			unit_price = EXCLUDED.unit_price,
			unit = EXCLUDED.unit,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// SoftDelete marks a reference price inactive; invoice history keeps pointing
// at it.
func (r *CatalogRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := squirrel.Update("reference_prices").
		Set("active", false).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteCascade hard-deletes a reference price and the pending products
// sharing its identity, in one transaction.
func (r *CatalogRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error) {
	ref, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if ref == nil {
		return false, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM pending_products WHERE normalized_name = $1 AND supplier = $2 AND scope = $3`,
		ref.NormalizedName, ref.Supplier, ref.Scope,
	); err != nil {
		return false, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reference_prices WHERE id = $1`, id); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReferencePrice(row rowScanner) (*models.ReferencePrice, error) {
	var ref models.ReferencePrice
	if err := row.Scan(
		&ref.ID, &ref.ProductName, &ref.NormalizedName, &ref.Supplier, &ref.Scope,
		&ref.CatalogCode, &ref.UnitPrice, &ref.Unit, &ref.Category, &ref.Active, &ref.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ref, nil
}

func scanReferencePrices(rows pgx.Rows) ([]*models.ReferencePrice, error) {
	var refs []*models.ReferencePrice
	for rows.Next() {
		ref, err := scanReferencePrice(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
