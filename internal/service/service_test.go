package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shop-admin/internal/events"
	"shop-admin/internal/model"
	"shop-admin/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, q repository.ProductQuery) ([]model.Product, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []events.StatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.StatusChanged(nil), p.events...)
}

var errDB = errors.New("connection reset")

func intPtr(v int) *int { return &v }

// seededMemory returns a store with two categories, three products and a
// fixed clock.
func seededMemory(t *testing.T) *repository.Memory {
	t.Helper()
	ctx := context.Background()
	mem := repository.NewMemory()
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mem.SetClock(func() time.Time { return clock })

	for _, c := range []model.Category{
		{CategoryID: 1, CategoryName: "Guitars"},
		{CategoryID: 2, CategoryName: "Drums"},
	} {
		c := c
		require.NoError(t, mem.Categories().Create(ctx, &c))
	}
	for _, p := range []model.Product{
		{ProductID: 1, ProductName: "Acoustic Guitar", Price: decimal.NewFromInt(300), CategoryID: intPtr(1)},
		{ProductID: 2, ProductName: "Electric Guitar", Price: decimal.NewFromInt(900), CategoryID: intPtr(1)},
		{ProductID: 3, ProductName: "Snare Drum", Price: decimal.RequireFromString("149.50"), CategoryID: intPtr(2)},
	} {
		p := p
		require.NoError(t, mem.Products().Create(ctx, &p))
	}
	return mem
}
