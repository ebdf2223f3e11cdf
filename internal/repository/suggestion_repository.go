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

var suggestionColumns = []string{
	"id", "product_name", "supplier", "current_price", "proposed_price",
	"confidence", "tier", "requires_human_validation", "auto_apply",
	"status", "decision", "notes", "created_at", "reviewed_at",
}

type SuggestionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSuggestionRepository(db *pgxpool.Pool, logger *zap.Logger) *SuggestionRepository {
	return &SuggestionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SuggestionRepository) CreateBatch(ctx context.Context, suggestions []*models.PriceUpdateSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	builder := squirrel.Insert("price_update_suggestions").
		Columns(suggestionColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, s := range suggestions {
		builder = builder.Values(s.ID, s.ProductName, s.Supplier, s.CurrentPrice, s.ProposedPrice,
			s.Confidence, s.Tier, s.RequiresHumanValidation, s.AutoApply,
			s.Status, s.Decision, s.Notes, s.CreatedAt, s.ReviewedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *SuggestionRepository) List(ctx context.Context, status *models.SuggestionStatus) ([]*models.PriceUpdateSuggestion, error) {
	query := squirrel.Select(suggestionColumns...).
		From("price_update_suggestions").
		OrderBy("confidence DESC", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if status != nil {
		query = query.Where(squirrel.Eq{"status": *status})
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

	var suggestions []*models.PriceUpdateSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

func (r *SuggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PriceUpdateSuggestion, error) {
	query := squirrel.Select(suggestionColumns...).
		From("price_update_suggestions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSuggestion(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// MarkReviewed transitions pending_validation -> reviewed. The status guard
// in the WHERE clause keeps reviewed suggestions immutable.
func (r *SuggestionRepository) MarkReviewed(ctx context.Context, id uuid.UUID, decision string, notes *string, reviewedAt time.Time) (bool, error) {
	query := squirrel.Update("price_update_suggestions").
		Set("status", models.SuggestionReviewed).
		Set("decision", decision).
		Set("reviewed_at", reviewedAt).
		Where(squirrel.Eq{"id": id, "status": models.SuggestionPendingValidation}).
		PlaceholderFormat(squirrel.Dollar)
	if notes != nil {
		query = query.Set("notes", *notes)
	}

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

func scanSuggestion(row rowScanner) (*models.PriceUpdateSuggestion, error) {
	var s models.PriceUpdateSuggestion
	if err := row.Scan(
		&s.ID, &s.ProductName, &s.Supplier, &s.CurrentPrice, &s.ProposedPrice,
		&s.Confidence, &s.Tier, &s.RequiresHumanValidation, &s.AutoApply,
		&s.Status, &s.Decision, &s.Notes, &s.CreatedAt, &s.ReviewedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
