package service

import (
	"context"
	"time"

	"facturo/internal/models"

	"github.com/google/uuid"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository satisfy them in production; tests inject in-memory
// fakes.

type CatalogStore interface {
	// ListActiveForScope returns active reference prices visible from the
	// given restaurant scope (restaurant-scoped rows plus General fallback),
	// restaurant-scoped rows first.
	ListActiveForScope(ctx context.Context, restaurant string) ([]*models.ReferencePrice, error)
	GetActiveByIdentity(ctx context.Context, normalizedName, supplier, scope string) (*models.ReferencePrice, error)
	Upsert(ctx context.Context, ref *models.ReferencePrice) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteCascade hard-deletes a reference price together with the pending
	// products sharing its identity.
	DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, supplier *string) ([]*models.ReferencePrice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReferencePrice, error)
}

type PendingStore interface {
	// UpsertSighting inserts a pending product or, when one already exists
	// for the same (normalized name, supplier, scope), updates its price and
	// timestamp in place. Must be atomic.
	UpsertSighting(ctx context.Context, p *models.PendingProduct) error
	List(ctx context.Context) ([]*models.PendingProduct, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PendingProduct, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type AnomalyStore interface {
	Create(ctx context.Context, a *models.Anomaly) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error)
	List(ctx context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error)
	// TransitionStatus performs a compare-and-swap write: the update applies
	// only if the row is still in the expected state. Returns false when the
	// precondition no longer holds.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.AnomalyStatus, update models.AnomalyStatusUpdate) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, update models.AnomalyStatusUpdate) (bool, error)
	Stats(ctx context.Context) (*models.AnomalyStats, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type SuggestionStore interface {
	CreateBatch(ctx context.Context, suggestions []*models.PriceUpdateSuggestion) error
	List(ctx context.Context, status *models.SuggestionStatus) ([]*models.PriceUpdateSuggestion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PriceUpdateSuggestion, error)
	// MarkReviewed transitions pending_validation -> reviewed; returns false
	// when the suggestion is unknown or already reviewed.
	MarkReviewed(ctx context.Context, id uuid.UUID, decision string, notes *string, reviewedAt time.Time) (bool, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// MailSender delivers rendered supplier correspondence. The anomaly service
// only produces content; transport lives behind this interface.
type MailSender interface {
	Send(to, subject, body string) error
}
