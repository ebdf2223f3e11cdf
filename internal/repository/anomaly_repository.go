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

var anomalyColumns = []string{
	"id", "product_name", "supplier", "restaurant", "invoice_price", "catalog_price",
	"ecart_euros", "ecart_pourcent", "status", "comment", "supplier_reply",
	"invoice_id", "detected_at", "mail_sent_at", "response_at", "updated_at",
}

type AnomalyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnomalyRepository(db *pgxpool.Pool, logger *zap.Logger) *AnomalyRepository {
	return &AnomalyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AnomalyRepository) Create(ctx context.Context, a *models.Anomaly) error {
	query := squirrel.Insert("anomalies").
		Columns(anomalyColumns...).
		Values(a.ID, a.ProductName, a.Supplier, a.Restaurant, a.InvoicePrice, a.CatalogPrice,
			a.EcartEuros, a.EcartPourcent, a.Status, a.Comment, a.SupplierReply,
			a.InvoiceID, a.DetectedAt, a.MailSentAt, a.ResponseAt, a.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AnomalyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error) {
	query := squirrel.Select(anomalyColumns...).
		From("anomalies").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	a, err := scanAnomaly(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AnomalyRepository) List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error) {
	query := squirrel.Select(anomalyColumns...).
		From("anomalies").
		OrderBy("detected_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if filter.Status != nil {
		query = query.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Supplier != nil {
		query = query.Where(squirrel.Eq{"supplier": *filter.Supplier})
	}
	if filter.Restaurant != nil {
		query = query.Where(squirrel.Eq{"restaurant": *filter.Restaurant})
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

	var anomalies []*models.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

// TransitionStatus is a compare-and-swap write: the row must still be in the
// expected state or nothing happens. This is what makes concurrent
// accept/refuse races lose cleanly instead of overwriting each other.
func (r *AnomalyRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to models.AnomalyStatus,
	update models.AnomalyStatusUpdate,
) (bool, error) {
	query := squirrel.Update("anomalies").
		Set("status", to).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": from}).
		PlaceholderFormat(squirrel.Dollar)
	query = applyUpdateFields(query, update)

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

// UpdateFields updates the free-text fields without touching the status.
func (r *AnomalyRepository) UpdateFields(ctx context.Context, id uuid.UUID, update models.AnomalyStatusUpdate) (bool, error) {
	query := squirrel.Update("anomalies").
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	query = applyUpdateFields(query, update)

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

func applyUpdateFields(query squirrel.UpdateBuilder, update models.AnomalyStatusUpdate) squirrel.UpdateBuilder {
	if update.Comment != nil {
		query = query.Set("comment", *update.Comment)
	}
	if update.SupplierReply != nil {
		query = query.Set("supplier_reply", *update.SupplierReply)
	}
	if update.MailSentAt != nil {
		query = query.Set("mail_sent_at", *update.MailSentAt)
	}
	if update.ResponseAt != nil {
		query = query.Set("response_at", *update.ResponseAt)
	}
	return query
}

func (r *AnomalyRepository) Stats(ctx context.Context) (*models.AnomalyStats, error) {
	query := squirrel.Select("status", "COUNT(*)", "COALESCE(SUM(ecart_euros), 0)").
		From("anomalies").
		GroupBy("status").
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

	stats := &models.AnomalyStats{ByStatus: make(map[models.AnomalyStatus]int)}
	for rows.Next() {
		var (
			status models.AnomalyStatus
			count  int
			ecart  float64
		)
		if err := rows.Scan(&status, &count, &ecart); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
		stats.TotalEcart += ecart
	}
	return stats, rows.Err()
}

func (r *AnomalyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := squirrel.Delete("anomalies").
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

func scanAnomaly(row rowScanner) (*models.Anomaly, error) {
	var a models.Anomaly
	if err := row.Scan(
		&a.ID, &a.ProductName, &a.Supplier, &a.Restaurant, &a.InvoicePrice, &a.CatalogPrice,
		&a.EcartEuros, &a.EcartPourcent, &a.Status, &a.Comment, &a.SupplierReply,
		&a.InvoiceID, &a.DetectedAt, &a.MailSentAt, &a.ResponseAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
