package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

type mockStore struct {
	mock.Mock
	tx *mockTx
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.tx)
}

func (m *mockStore) FindOrder(ctx context.Context, id string) (*domain.OrderAggregate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderAggregate), args.Error(1)
}

func (m *mockStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockStore) FindOrderIDByIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

type mockTx struct {
	mock.Mock
}

func (m *mockTx) FindOrder(ctx context.Context, id string) (*domain.OrderAggregate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderAggregate), args.Error(1)
}

func (m *mockTx) LookupPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *mockTx) FindOrderIDByIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockTx) ClientExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockTx) InsertIdempotencyRecord(ctx context.Context, key, orderID string) error {
	return m.Called(ctx, key, orderID).Error(0)
}

func (m *mockTx) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *mockTx) LockOrder(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTx) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *mockTx) DeleteItems(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockTx) DeleteIdempotencyRecords(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockTx) DeleteOrder(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type observation struct {
	op      string
	outcome string
}

type recordingRecorder struct {
	mu           sync.Mutex
	observations []observation
}

func (r *recordingRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation{op: op, outcome: outcome})
}

func (r *recordingRecorder) last() observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.observations) == 0 {
		return observation{}
	}
	return r.observations[len(r.observations)-1]
}
