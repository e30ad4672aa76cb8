package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sort"
	"sync"
	"testing"

	"teeshop/internal/domain"
	"teeshop/internal/events"
	"teeshop/internal/invoice"
	"teeshop/internal/repository"
	"teeshop/internal/storage"

	"github.com/google/uuid"
)

// Mock repositories for testing. They keep copies so that a rolled back
// transaction leaves the stored values untouched.
type mockDesignRepository struct {
	designs map[string]domain.Design
	failOn  string
}

func newMockDesignRepository(designs ...*domain.Design) *mockDesignRepository {
	m := &mockDesignRepository{designs: make(map[string]domain.Design)}
	for _, d := range designs {
		m.designs[d.Code] = *d
	}
	return m
}

func (m *mockDesignRepository) fail(op string) error {
	if m.failOn == op {
		return errors.New("connection reset")
	}
	return nil
}

func (m *mockDesignRepository) Create(ctx context.Context, design *domain.Design) error {
	if err := m.fail("Create"); err != nil {
		return err
	}
	if _, ok := m.designs[design.Code]; ok {
		return repository.ErrDesignCodeTaken
	}
	m.designs[design.Code] = *design
	return nil
}

func (m *mockDesignRepository) Update(ctx context.Context, design *domain.Design) error {
	for code, d := range m.designs {
		if d.ID == design.ID {
			delete(m.designs, code)
			m.designs[design.Code] = *design
			return nil
		}
	}
	return repository.ErrDesignNotFound
}

func (m *mockDesignRepository) UpdateStock(ctx context.Context, design *domain.Design) error {
	if err := m.fail("UpdateStock"); err != nil {
		return err
	}
	d, ok := m.designs[design.Code]
	if !ok || d.ID != design.ID {
		return repository.ErrDesignNotFound
	}
	d.StockQuantity = design.StockQuantity
	d.Stock = design.Stock
	d.UpdatedAt = design.UpdatedAt
	m.designs[design.Code] = d
	return nil
}

func (m *mockDesignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for code, d := range m.designs {
		if d.ID == id {
			delete(m.designs, code)
			return nil
		}
	}
	return repository.ErrDesignNotFound
}

func (m *mockDesignRepository) AddImages(ctx context.Context, designID uuid.UUID, images []string) error {
	for code, d := range m.designs {
		if d.ID == designID {
			d.Images = append(append([]string{}, d.Images...), images...)
			m.designs[code] = d
			return nil
		}
	}
	return repository.ErrDesignNotFound
}

func (m *mockDesignRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Design, error) {
	for _, d := range m.designs {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, repository.ErrDesignNotFound
}

func (m *mockDesignRepository) FindByCode(ctx context.Context, code string) (*domain.Design, error) {
	d, ok := m.designs[code]
	if !ok {
		return nil, repository.ErrDesignNotFound
	}
	return &d, nil
}

func (m *mockDesignRepository) FindByCodeForUpdate(ctx context.Context, code string) (*domain.Design, error) {
	return m.FindByCode(ctx, code)
}

func (m *mockDesignRepository) List(ctx context.Context) ([]*domain.Design, error) {
	out := make([]*domain.Design, 0, len(m.designs))
	for _, d := range m.designs {
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockDesignRepository) stock(t *testing.T, code string) (int, string) {
	t.Helper()
	d, ok := m.designs[code]
	if !ok {
		t.Fatalf("design %s not stored", code)
	}
	return d.StockQuantity, d.Stock
}

type mockOrderRepository struct {
	orders map[uuid.UUID]domain.Order
	failOn string
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.failOn == "Create" {
		return errors.New("disk full")
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepository) UpdateLifecycle(ctx context.Context, order *domain.Order) error {
	if m.failOn == "UpdateLifecycle" {
		return errors.New("disk full")
	}
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *mockOrderRepository) ExistsPending(ctx context.Context, phone, designCode string) (bool, error) {
	for _, o := range m.orders {
		if o.Phone == phone && o.DesignCode == designCode && o.Status == domain.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.Status == status {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(*out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepository) SalesByDesign(ctx context.Context) ([]domain.SalesCount, error) {
	counts := map[string]*domain.SalesCount{}
	for _, o := range m.orders {
		c, ok := counts[o.DesignCode]
		if !ok {
			c = &domain.SalesCount{DesignCode: o.DesignCode, Label: o.DesignName}
			counts[o.DesignCode] = c
		}
		c.Orders++
	}
	out := make([]domain.SalesCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DesignCode < out[j].DesignCode })
	return out, nil
}

// mockTxManager restores both repositories when fn fails
type mockTxManager struct {
	designs *mockDesignRepository
	orders  *mockOrderRepository
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	designs := make(map[string]domain.Design, len(m.designs.designs))
	for k, v := range m.designs.designs {
		designs[k] = v
	}
	orders := make(map[uuid.UUID]domain.Order, len(m.orders.orders))
	for k, v := range m.orders.orders {
		orders[k] = v
	}

	if err := fn(ctx); err != nil {
		m.designs.designs = designs
		m.orders.orders = orders
		return err
	}
	return nil
}

type mockBlobStore struct {
	err    error
	stored []string
}

func (m *mockBlobStore) Store(ctx context.Context, upload storage.Upload, category string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	url := "/uploads/" + category + "/" + uuid.NewString() + upload.Ext()
	m.stored = append(m.stored, url)
	return url, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	placed  []uuid.UUID
	changed []domain.Status
}

func (m *mockNotifier) OrderPlaced(ctx context.Context, o *domain.Order) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, o.ID)
	return 2
}

func (m *mockNotifier) StatusChanged(ctx context.Context, o *domain.Order) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, o.Status)
	return true
}

type mockPublisher struct {
	events []events.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

type mockSettingsRepository struct {
	settings *domain.Settings
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	if m.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	s := *m.settings
	return &s, nil
}

func (m *mockSettingsRepository) CreateIfMissing(ctx context.Context, settings *domain.Settings) (bool, error) {
	if m.settings != nil {
		return false, nil
	}
	s := *settings
	m.settings = &s
	return true, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	if m.settings == nil {
		return repository.ErrSettingsNotFound
	}
	s := *settings
	m.settings = &s
	return nil
}

type staticSettings struct {
	settings domain.Settings
}

func (s staticSettings) Current(ctx context.Context) (*domain.Settings, error) {
	out := s.settings
	return &out, nil
}

type memoryArchive struct {
	docs map[uuid.UUID]*invoice.Document
}

func (a *memoryArchive) Save(id uuid.UUID, doc *invoice.Document) error {
	a.docs[id] = doc
	return nil
}

func (a *memoryArchive) Load(id uuid.UUID) (*invoice.Document, error) {
	doc, ok := a.docs[id]
	if !ok {
		return nil, invoice.ErrNotArchived
	}
	return doc, nil
}

func pngUpload(t *testing.T, name string) storage.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return storage.Upload{Filename: name, Data: buf.Bytes()}
}
