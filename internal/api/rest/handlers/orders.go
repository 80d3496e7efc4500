package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CameronXie/order-management/internal/api/rest/response"
	"github.com/CameronXie/order-management/internal/coordinator"
	"github.com/CameronXie/order-management/internal/domain"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255

	missingIdempotencyKeyMessage = "missing Idempotency-Key header"
	longIdempotencyKeyMessage    = "Idempotency-Key header must be at most 255 characters"
)

// OrderCoordinator is the order write and read surface used by OrderHandler.
type OrderCoordinator interface {
	Create(ctx context.Context, req coordinator.CreateRequest) (*coordinator.CreateResult, error)
	Update(ctx context.Context, id string, req coordinator.UpdateRequest) (*domain.OrderAggregate, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.OrderAggregate, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	orders OrderCoordinator
	logger *slog.Logger
}

// NewOrderHandler creates a new OrderHandler instance.
func NewOrderHandler(orders OrderCoordinator, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// ItemRequest is one order line in a request body.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	Order struct {
		Date     *time.Time `json:"date,omitempty"`
		ClientID string     `json:"client_id"`
	} `json:"order"`
	Items []ItemRequest `json:"items"`
}

// UpdateOrderRequest represents the request payload for updating an order.
// Omitted fields are left unchanged.
type UpdateOrderRequest struct {
	Order struct {
		Date     *time.Time `json:"date,omitempty"`
		ClientID *string    `json:"client_id,omitempty"`
		Status   *string    `json:"status,omitempty"`
	} `json:"order"`
	Items []ItemRequest `json:"items,omitempty"`
}

// ClientSummaryResponse is the client embedded in an order.
type ClientSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderItemResponse is one order line. Price is the snapshot stored at write
// time; UnitPrice is the product's current price when it still exists.
type OrderItemResponse struct {
	ProductID   string           `json:"product_id"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	ProductName *string          `json:"product_name,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

// OrderResponse is the assembled order.
type OrderResponse struct {
	ID             string                 `json:"id"`
	Date           time.Time              `json:"date"`
	ClientID       string                 `json:"client_id"`
	Status         domain.Status          `json:"status"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Client         *ClientSummaryResponse `json:"client,omitempty"`
	Items          []OrderItemResponse    `json:"items"`
	Total          decimal.Decimal        `json:"total"`
}

// OrderHeaderResponse is an order without its items.
type OrderHeaderResponse struct {
	ID             string        `json:"id"`
	Date           time.Time     `json:"date"`
	ClientID       string        `json:"client_id"`
	Status         domain.Status `json:"status"`
	IdempotencyKey string        `json:"idempotency_key"`
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		response.JSONErrorResponse(w, http.StatusBadRequest, missingIdempotencyKeyMessage)
		return
	}
	if len(key) > maxIdempotencyKeyLength {
		response.JSONErrorResponse(w, http.StatusBadRequest, longIdempotencyKeyMessage)
		return
	}

	var req CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	header := coordinator.Header{ClientID: req.Order.ClientID}
	if req.Order.Date != nil {
		header.Date = *req.Order.Date
	}

	result, err := h.orders.Create(r.Context(), coordinator.CreateRequest{
		Header:         header,
		Items:          toItemInputs(req.Items),
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to create order", err, "idempotency_key", key)
		return
	}

	if result.Replayed {
		w.Header().Set(ReplayedHeader, "true")
	}

	response.JSONResponse(w, http.StatusCreated, map[string]OrderResponse{"order": toOrderResponse(result.Order)})
}

// ListOrders handles GET /orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.FindAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to list orders", err)
		return
	}

	headers := make([]OrderHeaderResponse, 0, len(orders))
	for i := range orders {
		headers = append(headers, toOrderHeaderResponse(&orders[i]))
	}

	response.JSONResponse(w, http.StatusOK, map[string][]OrderHeaderResponse{"orders": headers})
}

// GetOrder handles GET /orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	agg, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to retrieve order", err, "order_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]OrderResponse{"order": toOrderResponse(agg)})
}

// UpdateOrder handles PUT /orders/{id}.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := domain.OrderPatch{
		Date:     req.Order.Date,
		ClientID: req.Order.ClientID,
	}
	if req.Order.Status != nil {
		status, err := domain.ParseStatus(*req.Order.Status)
		if err != nil {
			writeError(r.Context(), w, h.logger, "failed to update order", err, "order_id", id)
			return
		}
		patch.Status = &status
	}

	agg, err := h.orders.Update(r.Context(), id, coordinator.UpdateRequest{
		Patch: patch,
		Items: toItemInputs(req.Items),
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to update order", err, "order_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]OrderResponse{"order": toOrderResponse(agg)})
}

// DeleteOrder handles DELETE /orders/{id}.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := h.orders.Delete(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to delete order", err, "order_id", id)
		return
	}

	if !deleted {
		h.logger.WarnContext(r.Context(), "order not found", "order_id", id)
		response.JSONErrorResponse(w, http.StatusNotFound, "order with id "+id+" not found")
		return
	}

	response.NoContent(w, http.StatusNoContent)
}

func toItemInputs(items []ItemRequest) []coordinator.ItemInput {
	if len(items) == 0 {
		return nil
	}

	inputs := make([]coordinator.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = coordinator.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	return inputs
}

func toOrderResponse(agg *domain.OrderAggregate) OrderResponse {
	resp := OrderResponse{
		ID:             agg.ID,
		Date:           agg.Date,
		ClientID:       agg.ClientID,
		Status:         agg.Status,
		IdempotencyKey: agg.IdempotencyKey,
		Items:          make([]OrderItemResponse, 0, len(agg.Items)),
		Total:          agg.Total(),
	}

	if agg.Client != nil {
		resp.Client = &ClientSummaryResponse{
			ID:    agg.Client.ID,
			Name:  agg.Client.Name,
			Email: agg.Client.Email,
		}
	}

	for _, item := range agg.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
		})
	}

	return resp
}

func toOrderHeaderResponse(order *domain.Order) OrderHeaderResponse {
	return OrderHeaderResponse{
		ID:             order.ID,
		Date:           order.Date,
		ClientID:       order.ClientID,
		Status:         order.Status,
		IdempotencyKey: order.IdempotencyKey,
	}
}
