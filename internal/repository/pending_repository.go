package repository

import (
	"context"
	"errors"

	"facturo/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var pendingProductColumns = []string{
	"id", "product_name", "normalized_name", "supplier", "scope",
	"unit_price", "unit", "category", "source", "created_at", "updated_at",
}

type PendingRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPendingRepository(db *pgxpool.Pool, logger *zap.Logger) *PendingRepository {
	return &PendingRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertSighting inserts a pending product, or refreshes the price and
// timestamp of the row already holding the same (normalized_name, supplier,
// scope) identity. The ON CONFLICT write makes the dedup atomic under
// concurrent scans.
func (r *PendingRepository) UpsertSighting(ctx context.Context, p *models.PendingProduct) error {
	query := squirrel.Insert("pending_products").
		Columns(pendingProductColumns...).
		Values(p.ID, p.ProductName, p.NormalizedName, p.Supplier, p.Scope,
			p.UnitPrice, p.Unit, p.Category, p.Source, p.CreatedAt, p.UpdatedAt).
		Suffix(`ON CONFLICT (normalized_name, supplier, scope) DO UPDATE SET
			unit_price = EXCLUDED.unit_price,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PendingRepository) List(ctx context.Context) ([]*models.PendingProduct, error) {
	query := squirrel.Select(pendingProductColumns...).
		From("pending_products").
		OrderBy("created_at DESC").
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

	var pendings []*models.PendingProduct
	for rows.Next() {
		p, err := scanPendingProduct(rows)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, p)
	}
	return pendings, rows.Err()
}

func (r *PendingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingProduct, error) {
	query := squirrel.Select(pendingProductColumns...).
		From("pending_products").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanPendingProduct(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PendingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := squirrel.Delete("pending_products").
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

func scanPendingProduct(row rowScanner) (*models.PendingProduct, error) {
	var p models.PendingProduct
	if err := row.Scan(
		&p.ID, &p.ProductName, &p.NormalizedName, &p.Supplier, &p.Scope,
		&p.UnitPrice, &p.Unit, &p.Category, &p.Source, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
