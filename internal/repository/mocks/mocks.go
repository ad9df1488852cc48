// Package mocks provides testify mocks of the backend interfaces.
package mocks

import (
	"context"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

type BookingBackend struct {
	mock.Mock
}

var _ repository.BookingBackend = (*BookingBackend)(nil)

func (m *BookingBackend) CreateProductGroup(ctx context.Context, group *repository.ProductGroup) (*repository.ProductGroup, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductGroup), args.Error(1)
}

func (m *BookingBackend) GetProductGroup(ctx context.Context, id string) (*repository.ProductGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductGroup), args.Error(1)
}

func (m *BookingBackend) UpdateProductGroup(ctx context.Context, id string, group *repository.ProductGroup) (*repository.ProductGroup, error) {
	args := m.Called(ctx, id, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProductGroup), args.Error(1)
}

func (m *BookingBackend) ArchiveProductGroup(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BookingBackend) ListProductGroups(ctx context.Context) ([]repository.ProductGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ProductGroup), args.Error(1)
}

func (m *BookingBackend) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Product), args.Error(1)
}

func (m *BookingBackend) CreateOrder(ctx context.Context, order *repository.Order) (*repository.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

func (m *BookingBackend) GetOrder(ctx context.Context, id string) (*repository.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

func (m *BookingBackend) UpdateOrder(ctx context.Context, id string, order *repository.Order) (*repository.Order, error) {
	args := m.Called(ctx, id, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

func (m *BookingBackend) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]repository.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Order), args.Error(1)
}

func (m *BookingBackend) AddOrderLine(ctx context.Context, orderID string, line *repository.OrderLine) (*repository.OrderLine, error) {
	args := m.Called(ctx, orderID, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.OrderLine), args.Error(1)
}

func (m *BookingBackend) ReserveOrder(ctx context.Context, id string) (*repository.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

func (m *BookingBackend) CancelOrder(ctx context.Context, id string) (*repository.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

type RecordStore struct {
	mock.Mock
}

var _ repository.RecordStore = (*RecordStore)(nil)

func (m *RecordStore) Create(ctx context.Context, table string, fields domain.Fields) (*repository.Record, error) {
	args := m.Called(ctx, table, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Record), args.Error(1)
}

func (m *RecordStore) Get(ctx context.Context, table, id string) (*repository.Record, error) {
	args := m.Called(ctx, table, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Record), args.Error(1)
}

func (m *RecordStore) Update(ctx context.Context, table, id string, fields domain.Fields) (*repository.Record, error) {
	args := m.Called(ctx, table, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Record), args.Error(1)
}

func (m *RecordStore) Delete(ctx context.Context, table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

func (m *RecordStore) Select(ctx context.Context, table string, q repository.Query) ([]repository.Record, error) {
	args := m.Called(ctx, table, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Record), args.Error(1)
}

type DocumentStore struct {
	mock.Mock
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

func (m *DocumentStore) Create(ctx context.Context, collection string, data domain.Fields) (string, error) {
	args := m.Called(ctx, collection, data)
	return args.String(0), args.Error(1)
}

func (m *DocumentStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Document), args.Error(1)
}

func (m *DocumentStore) Update(ctx context.Context, collection, id string, data domain.Fields) error {
	args := m.Called(ctx, collection, id, data)
	return args.Error(0)
}

func (m *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *DocumentStore) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Document), args.Error(1)
}
