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

// OrderRepository is read-only: orders are created by the purchasing flow
// upstream, this core only reconciles against them.
type OrderRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOrderRepository(db *pgxpool.Pool, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := squirrel.Select("id", "supplier", "status", "total", "created_at").
		From("orders").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&order.ID, &order.Supplier, &order.Status, &order.Total, &order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.linesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *OrderRepository) linesFor(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	query := squirrel.Select("id", "order_id", "product_name", "quantity", "unit_price").
		From("order_line_items").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("product_name").
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

	var lines []models.OrderLineItem
	for rows.Next() {
		var line models.OrderLineItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
