//nolint:lll // unit tests
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/order-management/internal/coordinator"
	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

type mockOrderCoordinator struct {
	mock.Mock
}

func (m *mockOrderCoordinator) Create(ctx context.Context, req coordinator.CreateRequest) (*coordinator.CreateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.CreateResult), args.Error(1)
}

func (m *mockOrderCoordinator) Update(ctx context.Context, id string, req coordinator.UpdateRequest) (*domain.OrderAggregate, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderAggregate), args.Error(1)
}

func (m *mockOrderCoordinator) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderCoordinator) FindByID(ctx context.Context, id string) (*domain.OrderAggregate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderAggregate), args.Error(1)
}

func (m *mockOrderCoordinator) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

// testLogger captures log messages and levels for testing
type testLogger struct {
	messages []string
	levels   []slog.Level
	buffer   *bytes.Buffer
}

func newTestLogger() *testLogger {
	return &testLogger{buffer: &bytes.Buffer{}}
}

func (tl *testLogger) getLogger() *slog.Logger {
	handler := slog.NewTextHandler(tl.buffer, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&captureHandler{testLogger: tl, handler: handler})
}

// captureHandler wraps the original handler to capture log data
type captureHandler struct {
	testLogger *testLogger
	handler    slog.Handler
}

func (ch *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return ch.handler.Enabled(ctx, level)
}

func (ch *captureHandler) Handle(ctx context.Context, record slog.Record) error { //nolint:gocritic // slog.Handler interface
	ch.testLogger.messages = append(ch.testLogger.messages, record.Message)
	ch.testLogger.levels = append(ch.testLogger.levels, record.Level)
	return ch.handler.Handle(ctx, record)
}

func (ch *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{testLogger: ch.testLogger, handler: ch.handler.WithAttrs(attrs)}
}

func (ch *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{testLogger: ch.testLogger, handler: ch.handler.WithGroup(name)}
}

func sampleAggregate() *domain.OrderAggregate {
	name := "Keyboard"
	unit := decimal.RequireFromString("100")
	return &domain.OrderAggregate{
		Order: domain.Order{
			ID:             "order-1",
			Date:           time.Date(2025, 5, 10, 14, 30, 0, 0, time.UTC),
			ClientID:       "client-1",
			Status:         domain.StatusUnderReview,
			IdempotencyKey: "key-1",
		},
		Client: &domain.ClientSummary{ID: "client-1", Name: "Ana Lima", Email: "ana@example.com"},
		Items: []domain.AggregateItem{
			{ProductID: "p-1", Quantity: 3, Price: decimal.RequireFromString("300"), ProductName: &name, UnitPrice: &unit},
		},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	validBody := `{"order":{"client_id":"client-1"},"items":[{"product_id":"p-1","quantity":3}]}`
	expectedRequest := coordinator.CreateRequest{
		Header:         coordinator.Header{ClientID: "client-1"},
		Items:          []coordinator.ItemInput{{ProductID: "p-1", Quantity: 3}},
		IdempotencyKey: "key-1",
	}

	tests := map[string]struct {
		key              string
		body             string
		result           *coordinator.CreateResult
		err              error
		expectCall       bool
		expectedStatus   int
		expectedReplayed string
		expectedError    string
		expectedDetails  []any
		expectedLogLevel *slog.Level
	}{
		"should reject missing idempotency key": {
			body:           validBody,
			expectedStatus: http.StatusBadRequest,
			expectedError:  missingIdempotencyKeyMessage,
		},

		"should reject oversized idempotency key": {
			key:            strings.Repeat("k", 256),
			body:           validBody,
			expectedStatus: http.StatusBadRequest,
			expectedError:  longIdempotencyKeyMessage,
		},

		"should reject malformed body": {
			key:            "key-1",
			body:           `{"order":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  invalidRequestBodyMessage,
		},

		"should create order": {
			key:            "key-1",
			body:           validBody,
			result:         &coordinator.CreateResult{Order: sampleAggregate()},
			expectCall:     true,
			expectedStatus: http.StatusCreated,
		},

		"should flag replayed order": {
			key:              "key-1",
			body:             validBody,
			result:           &coordinator.CreateResult{Order: sampleAggregate(), Replayed: true},
			expectCall:       true,
			expectedStatus:   http.StatusCreated,
			expectedReplayed: "true",
		},

		"should map validation error to 400": {
			key:            "key-1",
			body:           validBody,
			err:            &coordinator.ValidationError{Field: "items[0].quantity", Reason: "must be a positive integer"},
			expectCall:     true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid items[0].quantity: must be a positive integer",
		},

		"should map missing products to 422": {
			key:              "key-1",
			body:             validBody,
			err:              &coordinator.ProductNotFoundError{ProductIDs: []string{"p-1"}},
			expectCall:       true,
			expectedStatus:   http.StatusUnprocessableEntity,
			expectedError:    productsNotFoundMessage,
			expectedDetails:  []any{"p-1"},
			expectedLogLevel: ptr(slog.LevelWarn),
		},

		"should map missing client to 404": {
			key:              "key-1",
			body:             validBody,
			err:              &repository.NotFoundError{Resource: repository.ClientResource, Key: "id", Value: "client-1"},
			expectCall:       true,
			expectedStatus:   http.StatusNotFound,
			expectedError:    "client with id client-1 not found",
			expectedLogLevel: ptr(slog.LevelWarn),
		},

		"should hide persistence failures": {
			key:              "key-1",
			body:             validBody,
			err:              &coordinator.PersistenceError{Op: "create", Err: errors.New("connection refused")},
			expectCall:       true,
			expectedStatus:   http.StatusInternalServerError,
			expectedError:    internalServerErrorMessage,
			expectedLogLevel: ptr(slog.LevelError),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			orders := new(mockOrderCoordinator)
			if tc.expectCall {
				orders.On("Create", mock.Anything, expectedRequest).Return(tc.result, tc.err)
			}
			logs := newTestLogger()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(tc.body))
			if tc.key != "" {
				req.Header.Set(IdempotencyKeyHeader, tc.key)
			}
			rec := httptest.NewRecorder()

			NewOrderHandler(orders, logs.getLogger()).CreateOrder(rec, req)

			orders.AssertExpectations(t)
			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedReplayed, rec.Header().Get(ReplayedHeader))

			body := decodeBody(t, rec)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, body["error"])
				if tc.expectedDetails != nil {
					assert.Equal(t, tc.expectedDetails, body["details"])
				}
			} else {
				order := body["order"].(map[string]any)
				assert.Equal(t, "order-1", order["id"])
				assert.Equal(t, "EM_ANALISE", order["status"])
				assert.Equal(t, "300", order["total"])
			}

			if tc.expectedLogLevel != nil {
				require.Len(t, logs.levels, 1)
				assert.Equal(t, *tc.expectedLogLevel, logs.levels[0])
				assert.Equal(t, "failed to create order", logs.messages[0])
			} else {
				assert.Empty(t, logs.levels)
			}
		})
	}
}

func TestOrderHandler_CreateOrder_PassesDate(t *testing.T) {
	orders := new(mockOrderCoordinator)
	date := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(req coordinator.CreateRequest) bool {
		return req.Header.Date.Equal(date)
	})).Return(&coordinator.CreateResult{Order: sampleAggregate()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(
		`{"order":{"date":"2025-02-03T10:00:00Z","client_id":"client-1"},"items":[{"product_id":"p-1","quantity":1}]}`,
	))
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	rec := httptest.NewRecorder()

	NewOrderHandler(orders, newTestLogger().getLogger()).CreateOrder(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	orders.AssertExpectations(t)
}

func TestOrderHandler_GetOrder(t *testing.T) {
	tests := map[string]struct {
		agg            *domain.OrderAggregate
		err            error
		expectedStatus int
		expectedLevels []slog.Level
	}{
		"should return assembled order": {
			agg:            sampleAggregate(),
			expectedStatus: http.StatusOK,
		},
		"should return 404 for missing order": {
			err:            &repository.NotFoundError{Resource: repository.OrderResource, Key: "id", Value: "order-1"},
			expectedStatus: http.StatusNotFound,
			expectedLevels: []slog.Level{slog.LevelWarn},
		},
		"should return 504 when the deadline passes": {
			err:            &coordinator.PersistenceError{Op: "find_by_id", Err: context.DeadlineExceeded},
			expectedStatus: http.StatusGatewayTimeout,
			expectedLevels: []slog.Level{slog.LevelError},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			orders := new(mockOrderCoordinator)
			orders.On("FindByID", mock.Anything, "order-1").Return(tc.agg, tc.err)
			logs := newTestLogger()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/order-1", http.NoBody)
			req.SetPathValue("id", "order-1")
			rec := httptest.NewRecorder()

			NewOrderHandler(orders, logs.getLogger()).GetOrder(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedLevels, logs.levels)
			if tc.agg != nil {
				order := decodeBody(t, rec)["order"].(map[string]any)
				assert.Equal(t, "Ana Lima", order["client"].(map[string]any)["name"])
				item := order["items"].([]any)[0].(map[string]any)
				assert.Equal(t, "300", item["price"])
				assert.Equal(t, "100", item["unit_price"])
				assert.Equal(t, "Keyboard", item["product_name"])
			}
		})
	}
}

func TestOrderHandler_UpdateOrder(t *testing.T) {
	confirmed := domain.StatusConfirmed

	tests := map[string]struct {
		body            string
		expectedRequest *coordinator.UpdateRequest
		err             error
		expectedStatus  int
		expectedError   string
	}{
		"should reject unknown status without calling coordinator": {
			body:           `{"order":{"status":"ENVIADO"}}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  `invalid status "ENVIADO", allowed values: EM_ANALISE, CONFIRMADO, CANCELADO`,
		},
		"should pass status patch and leave items unchanged": {
			body:            `{"order":{"status":"CONFIRMADO"}}`,
			expectedRequest: &coordinator.UpdateRequest{Patch: domain.OrderPatch{Status: &confirmed}},
			expectedStatus:  http.StatusOK,
		},
		"should pass replacement items": {
			body: `{"items":[{"product_id":"p-2","quantity":4}]}`,
			expectedRequest: &coordinator.UpdateRequest{
				Items: []coordinator.ItemInput{{ProductID: "p-2", Quantity: 4}},
			},
			expectedStatus: http.StatusOK,
		},
		"should treat empty items as unchanged": {
			body:            `{"items":[]}`,
			expectedRequest: &coordinator.UpdateRequest{},
			expectedStatus:  http.StatusOK,
		},
		"should map missing order to 404": {
			body:            `{"order":{"status":"CONFIRMADO"}}`,
			expectedRequest: &coordinator.UpdateRequest{Patch: domain.OrderPatch{Status: &confirmed}},
			err:             &repository.NotFoundError{Resource: repository.OrderResource, Key: "id", Value: "order-1"},
			expectedStatus:  http.StatusNotFound,
			expectedError:   "order with id order-1 not found",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			orders := new(mockOrderCoordinator)
			if tc.expectedRequest != nil {
				var agg *domain.OrderAggregate
				if tc.err == nil {
					agg = sampleAggregate()
				}
				orders.On("Update", mock.Anything, "order-1", *tc.expectedRequest).Return(agg, tc.err)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/order-1", strings.NewReader(tc.body))
			req.SetPathValue("id", "order-1")
			rec := httptest.NewRecorder()

			NewOrderHandler(orders, newTestLogger().getLogger()).UpdateOrder(rec, req)

			orders.AssertExpectations(t)
			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, decodeBody(t, rec)["error"])
			}
		})
	}
}

func TestOrderHandler_DeleteOrder(t *testing.T) {
	tests := map[string]struct {
		deleted        bool
		err            error
		expectedStatus int
	}{
		"should return 204 when deleted":   {deleted: true, expectedStatus: http.StatusNoContent},
		"should return 404 when missing":   {deleted: false, expectedStatus: http.StatusNotFound},
		"should return 500 on store error": {err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			orders := new(mockOrderCoordinator)
			orders.On("Delete", mock.Anything, "order-1").Return(tc.deleted, tc.err)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/order-1", http.NoBody)
			req.SetPathValue("id", "order-1")
			rec := httptest.NewRecorder()

			NewOrderHandler(orders, newTestLogger().getLogger()).DeleteOrder(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedStatus == http.StatusNoContent {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestOrderHandler_ListOrders(t *testing.T) {
	orders := new(mockOrderCoordinator)
	orders.On("FindAll", mock.Anything).Return([]domain.Order{sampleAggregate().Order}, nil)

	rec := httptest.NewRecorder()
	NewOrderHandler(orders, newTestLogger().getLogger()).ListOrders(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)["orders"].([]any)
	require.Len(t, list, 1)
	header := list[0].(map[string]any)
	assert.Equal(t, "order-1", header["id"])
	assert.NotContains(t, header, "items")
}

func ptr[T any](v T) *T {
	return &v
}
