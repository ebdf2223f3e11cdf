package service

import (
	"context"
	"errors"
	"time"

	"facturo/internal/models"

	"github.com/google/uuid"
)

// In-memory store fakes shared by the service tests.

var errStoreDown = errors.New("store down")

type fakeCatalog struct {
	refs []*models.ReferencePrice
	err  error
}

func (f *fakeCatalog) ListActiveForScope(_ context.Context, restaurant string) ([]*models.ReferencePrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var scoped, general []*models.ReferencePrice
	for _, ref := range f.refs {
		if !ref.Active {
			continue
		}
		switch ref.Scope {
		case restaurant:
			scoped = append(scoped, ref)
		case models.ScopeGeneral:
			general = append(general, ref)
		}
	}
	return append(scoped, general...), nil
}

func (f *fakeCatalog) GetActiveByIdentity(_ context.Context, normalizedName, supplier, scope string) (*models.ReferencePrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, ref := range f.refs {
		if ref.Active && ref.NormalizedName == normalizedName && ref.Supplier == supplier && ref.Scope == scope {
			return ref, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) Upsert(_ context.Context, ref *models.ReferencePrice) error {
	if f.err != nil {
		return f.err
	}
	for i, existing := range f.refs {
		if existing.Active && existing.NormalizedName == ref.NormalizedName &&
			existing.Supplier == ref.Supplier && existing.Scope == ref.Scope {
			f.refs[i] = ref
			return nil
		}
	}
	f.refs = append(f.refs, ref)
	return nil
}

func (f *fakeCatalog) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, ref := range f.refs {
		if ref.ID == id && ref.Active {
			ref.Active = false
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteCascade(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, ref := range f.refs {
		if ref.ID == id {
			f.refs = append(f.refs[:i], f.refs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) List(_ context.Context, supplier *string) ([]*models.ReferencePrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ReferencePrice
	for _, ref := range f.refs {
		if supplier == nil || ref.Supplier == *supplier {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id uuid.UUID) (*models.ReferencePrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, ref := range f.refs {
		if ref.ID == id {
			return ref, nil
		}
	}
	return nil, nil
}

type fakePending struct {
	products []*models.PendingProduct
	err      error
}

func (f *fakePending) UpsertSighting(_ context.Context, p *models.PendingProduct) error {
	if f.err != nil {
		return f.err
	}
	for i, existing := range f.products {
		if existing.NormalizedName == p.NormalizedName && existing.Supplier == p.Supplier && existing.Scope == p.Scope {
			existing.UnitPrice = p.UnitPrice
			existing.UpdatedAt = p.UpdatedAt
			f.products[i] = existing
			return nil
		}
	}
	f.products = append(f.products, p)
	return nil
}

func (f *fakePending) List(_ context.Context) ([]*models.PendingProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakePending) GetByID(_ context.Context, id uuid.UUID) (*models.PendingProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePending) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeOrders struct {
	orders map[uuid.UUID]*models.Order
	err    error
}

func (f *fakeOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[id], nil
}

type fakeAnomalies struct {
	anomalies map[uuid.UUID]*models.Anomaly
	err       error
}

func newFakeAnomalies() *fakeAnomalies {
	return &fakeAnomalies{anomalies: make(map[uuid.UUID]*models.Anomaly)}
}

func (f *fakeAnomalies) Create(_ context.Context, a *models.Anomaly) error {
	if f.err != nil {
		return f.err
	}
	stored := *a
	f.anomalies[a.ID] = &stored
	return nil
}

func (f *fakeAnomalies) GetByID(_ context.Context, id uuid.UUID) (*models.Anomaly, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.anomalies[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAnomalies) List(_ context.Context, filter models.AnomalyFilter) ([]*models.Anomaly, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Anomaly
	for _, a := range f.anomalies {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.Supplier != nil && a.Supplier != *filter.Supplier {
			continue
		}
		if filter.Restaurant != nil && a.Restaurant != *filter.Restaurant {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeAnomalies) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.AnomalyStatus, update models.AnomalyStatusUpdate) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	a, ok := f.anomalies[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	applyFakeUpdate(a, update)
	a.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeAnomalies) UpdateFields(_ context.Context, id uuid.UUID, update models.AnomalyStatusUpdate) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	a, ok := f.anomalies[id]
	if !ok {
		return false, nil
	}
	applyFakeUpdate(a, update)
	a.UpdatedAt = time.Now()
	return true, nil
}

func applyFakeUpdate(a *models.Anomaly, update models.AnomalyStatusUpdate) {
	if update.Comment != nil {
		a.Comment = update.Comment
	}
	if update.SupplierReply != nil {
		a.SupplierReply = update.SupplierReply
	}
	if update.MailSentAt != nil {
		a.MailSentAt = update.MailSentAt
	}
	if update.ResponseAt != nil {
		a.ResponseAt = update.ResponseAt
	}
}

func (f *fakeAnomalies) Stats(_ context.Context) (*models.AnomalyStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	stats := &models.AnomalyStats{ByStatus: make(map[models.AnomalyStatus]int)}
	for _, a := range f.anomalies {
		stats.Total++
		stats.ByStatus[a.Status]++
		stats.TotalEcart += a.EcartEuros
	}
	return stats, nil
}

func (f *fakeAnomalies) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.anomalies[id]; !ok {
		return false, nil
	}
	delete(f.anomalies, id)
	return true, nil
}

type fakeSuggestions struct {
	suggestions map[uuid.UUID]*models.PriceUpdateSuggestion
	err         error
}

func newFakeSuggestions() *fakeSuggestions {
	return &fakeSuggestions{suggestions: make(map[uuid.UUID]*models.PriceUpdateSuggestion)}
}

func (f *fakeSuggestions) CreateBatch(_ context.Context, suggestions []*models.PriceUpdateSuggestion) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range suggestions {
		stored := *s
		f.suggestions[s.ID] = &stored
	}
	return nil
}

func (f *fakeSuggestions) List(_ context.Context, status *models.SuggestionStatus) ([]*models.PriceUpdateSuggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.PriceUpdateSuggestion
	for _, s := range f.suggestions {
		if status != nil && s.Status != *status {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSuggestions) GetByID(_ context.Context, id uuid.UUID) (*models.PriceUpdateSuggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.suggestions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSuggestions) MarkReviewed(_ context.Context, id uuid.UUID, decision string, notes *string, reviewedAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	s, ok := f.suggestions[id]
	if !ok || s.Status != models.SuggestionPendingValidation {
		return false, nil
	}
	s.Status = models.SuggestionReviewed
	s.Decision = &decision
	if notes != nil {
		s.Notes = notes
	}
	s.ReviewedAt = &reviewedAt
	return true, nil
}

type fakeMail struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeMail) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
