package service

import (
	"context"
	"testing"
	"time"

	"facturo/internal/dto"
	"facturo/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalogService(catalog *fakeCatalog, pending *fakePending) *CatalogService {
	return NewCatalogService(catalog, pending, zap.NewNop())
}

func TestUpsertReferencePriceDefaults(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := newCatalogService(catalog, &fakePending{})

	created, err := svc.UpsertReferencePrice(context.Background(), &dto.UpsertReferencePriceRequest{
		ProductName: "Bavettes de bœuf",
		Supplier:    "Metro",
		UnitPrice:   30.00,
		Unit:        "kg",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ScopeGeneral, created.Scope)
	assert.Equal(t, "Uncategorized", created.Category)
	assert.True(t, created.Active)
	require.Len(t, catalog.refs, 1)
	assert.Equal(t, "bavettes boeuf", catalog.refs[0].NormalizedName)
}

func TestUpsertReferencePriceReplacesSameIdentity(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := newCatalogService(catalog, &fakePending{})

	_, err := svc.UpsertReferencePrice(context.Background(), &dto.UpsertReferencePriceRequest{
		ProductName: "Bavettes de bœuf",
		Supplier:    "Metro",
		UnitPrice:   30.00,
	})
	require.NoError(t, err)

	// Same identity spelled without the ligature.
	updated, err := svc.UpsertReferencePrice(context.Background(), &dto.UpsertReferencePriceRequest{
		ProductName: "Bavettes de boeuf",
		Supplier:    "Metro",
		UnitPrice:   31.50,
	})
	require.NoError(t, err)

	require.Len(t, catalog.refs, 1)
	assert.Equal(t, 31.50, updated.UnitPrice)
}

func TestDeleteReferencePrice(t *testing.T) {
	ref := refPrice("Farine T55", "Transgourmet", models.ScopeGeneral, 0.95)
	catalog := &fakeCatalog{refs: []*models.ReferencePrice{ref}}
	svc := newCatalogService(catalog, &fakePending{})

	require.NoError(t, svc.DeleteReferencePrice(context.Background(), ref.ID, false))
	assert.False(t, ref.Active)

	// Soft-deleted rows are gone for matching but not from history.
	require.Len(t, catalog.refs, 1)

	err := svc.DeleteReferencePrice(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestDeleteReferencePriceCascade(t *testing.T) {
	ref := refPrice("Farine T55", "Transgourmet", models.ScopeGeneral, 0.95)
	catalog := &fakeCatalog{refs: []*models.ReferencePrice{ref}}
	svc := newCatalogService(catalog, &fakePending{})

	require.NoError(t, svc.DeleteReferencePrice(context.Background(), ref.ID, true))
	assert.Empty(t, catalog.refs)
}

func TestValidatePendingProductPromotes(t *testing.T) {
	catalog := &fakeCatalog{}
	now := time.Now()
	p := &models.PendingProduct{
		ID:             uuid.New(),
		ProductName:    "Truffe noire",
		NormalizedName: NormalizeName("Truffe noire"),
		Supplier:       "Pomona",
		Scope:          models.ScopeGeneral,
		UnitPrice:      850.00,
		Unit:           "kg",
		Category:       "Uncategorized",
		Source:         "scanner",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	pending := &fakePending{products: []*models.PendingProduct{p}}
	svc := newCatalogService(catalog, pending)

	promoted, err := svc.ValidatePendingProduct(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, "Truffe noire", promoted.ProductName)
	assert.Equal(t, 850.00, promoted.UnitPrice)
	assert.True(t, promoted.Active)
	// Promotion consumes the pending record.
	assert.Empty(t, pending.products)
	require.Len(t, catalog.refs, 1)
}

func TestValidatePendingProductUnknown(t *testing.T) {
	svc := newCatalogService(&fakeCatalog{}, &fakePending{})

	_, err := svc.ValidatePendingProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestRejectPendingProduct(t *testing.T) {
	p := &models.PendingProduct{ID: uuid.New(), ProductName: "Truffe noire"}
	pending := &fakePending{products: []*models.PendingProduct{p}}
	catalog := &fakeCatalog{}
	svc := newCatalogService(catalog, pending)

	require.NoError(t, svc.RejectPendingProduct(context.Background(), p.ID))
	assert.Empty(t, pending.products)
	assert.Empty(t, catalog.refs)

	err := svc.RejectPendingProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestListDegradesOnStorageFailure(t *testing.T) {
	svc := newCatalogService(&fakeCatalog{err: errStoreDown}, &fakePending{err: errStoreDown})

	assert.Empty(t, svc.ListReferencePrices(context.Background(), nil))
	assert.Empty(t, svc.ListPendingProducts(context.Background()))
}
