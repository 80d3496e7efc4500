package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpFindByID = "find_by_id"
	OpFindAll  = "find_all"
)

const (
	OutcomeSuccess          = "success"
	OutcomeReplayed         = "replayed"
	OutcomeValidationError  = "validation_error"
	OutcomeNotFound         = "not_found"
	OutcomeInvalidStatus    = "invalid_status"
	OutcomeProductNotFound  = "product_not_found"
	OutcomePersistenceError = "persistence_error"
)

// Recorder observes the outcome and latency of coordinator operations.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// Header holds the order fields supplied at creation. A zero Date means now.
type Header struct {
	Date     time.Time
	ClientID string
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	Header         Header
	Items          []ItemInput
	IdempotencyKey string
}

// CreateResult carries the created order. Replayed is true when the
// idempotency key was already used and the existing order is returned.
type CreateResult struct {
	Order    *domain.OrderAggregate
	Replayed bool
}

// UpdateRequest is the input of Update. Nil or empty Items leaves the
// stored items unchanged; otherwise they are replaced as a whole.
type UpdateRequest struct {
	Patch domain.OrderPatch
	Items []ItemInput
}

// Coordinator runs order writes as all-or-nothing transactions. It keeps
// no per-request state and is safe for concurrent use.
type Coordinator struct {
	store    repository.Store
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// New creates a Coordinator over the given store.
func New(store repository.Store, options ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		recorder: nopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// WithLogger sets the logger for order lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRecorder sets the operation metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// WithClock overrides the clock used for default order dates.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithIDGenerator overrides how order IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) {
		c.newID = newID
	}
}

// Create inserts an order, its idempotency record and its items in one
// transaction, pricing every item at the current product price. A key that
// was already used returns the existing order untouched.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (result *CreateResult, err error) {
	defer c.observe(OpCreate, time.Now(), &err, func() bool { return result != nil && result.Replayed })

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	items := normalizeItems(req.Items)
	date := req.Header.Date
	if date.IsZero() {
		date = c.now()
	}

	order := &domain.Order{
		ID:             c.newID(),
		Date:           date.UTC().Truncate(time.Second),
		ClientID:       req.Header.ClientID,
		Status:         domain.InitialStatus,
		IdempotencyKey: req.IdempotencyKey,
	}

	var (
		agg      *domain.OrderAggregate
		replayed bool
	)

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existingID, found, err := tx.FindOrderIDByIdempotencyKey(ctx, order.IdempotencyKey)
		if err != nil {
			return err
		}
		if found {
			replayed = true
			agg, err = tx.FindOrder(ctx, existingID)
			return err
		}

		if err := requireClient(ctx, tx, order.ClientID); err != nil {
			return err
		}

		lines, err := priceItems(ctx, tx, order.ID, items)
		if err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.InsertIdempotencyRecord(ctx, order.IdempotencyKey, order.ID); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, order.ID, lines); err != nil {
			return err
		}

		agg, err = tx.FindOrder(ctx, order.ID)
		return err
	})

	// A concurrent request with the same key committed first.
	if errors.Is(err, repository.ErrDuplicateKey) {
		agg, err = c.replay(ctx, order.IdempotencyKey, err)
		replayed = err == nil
	}

	if err != nil {
		return nil, classify(OpCreate, err)
	}

	if replayed {
		c.logger.InfoContext(ctx, "order_replayed", "order_id", agg.ID, "idempotency_key", order.IdempotencyKey)
	} else {
		c.logger.InfoContext(ctx, "order_created", "order_id", agg.ID, "client_id", agg.ClientID, "items", len(agg.Items))
	}

	return &CreateResult{Order: agg, Replayed: replayed}, nil
}

// replay returns the order a winning concurrent create stored under key.
func (c *Coordinator) replay(ctx context.Context, key string, cause error) (*domain.OrderAggregate, error) {
	orderID, found, err := c.store.FindOrderIDByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	if !found {
		return nil, cause
	}

	return c.store.FindOrder(ctx, orderID)
}

// Update applies the supplied header fields and, when items are given,
// replaces the whole item set priced at current product prices.
func (c *Coordinator) Update(ctx context.Context, id string, req UpdateRequest) (agg *domain.OrderAggregate, err error) {
	defer c.observe(OpUpdate, time.Now(), &err, nil)

	if err := validateUpdate(id, req); err != nil {
		return nil, err
	}

	patch := req.Patch
	if patch.Date != nil {
		date := patch.Date.UTC().Truncate(time.Second)
		patch.Date = &date
	}
	items := normalizeItems(req.Items)

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		found, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return orderNotFound(id)
		}

		if patch.ClientID != nil {
			if err := requireClient(ctx, tx, *patch.ClientID); err != nil {
				return err
			}
		}

		var lines []domain.OrderItem
		if len(items) > 0 {
			if lines, err = priceItems(ctx, tx, id, items); err != nil {
				return err
			}
		}

		if err := tx.UpdateOrder(ctx, id, patch); err != nil {
			return err
		}

		if len(lines) > 0 {
			if err := tx.DeleteItems(ctx, id); err != nil {
				return err
			}
			if err := tx.InsertItems(ctx, id, lines); err != nil {
				return err
			}
		}

		agg, err = tx.FindOrder(ctx, id)
		return err
	})
	if err != nil {
		return nil, classify(OpUpdate, err)
	}

	c.logger.InfoContext(ctx, "order_updated", "order_id", id, "items_replaced", len(items) > 0)
	return agg, nil
}

// Delete removes the order with its items and idempotency record and
// reports whether the order existed.
func (c *Coordinator) Delete(ctx context.Context, id string) (deleted bool, err error) {
	defer c.observe(OpDelete, time.Now(), &err, nil)

	if strings.TrimSpace(id) == "" {
		return false, &ValidationError{Field: "id", Reason: "is required"}
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteIdempotencyRecords(ctx, id); err != nil {
			return err
		}

		var err error
		deleted, err = tx.DeleteOrder(ctx, id)
		return err
	})
	if err != nil {
		return false, classify(OpDelete, err)
	}

	if deleted {
		c.logger.InfoContext(ctx, "order_deleted", "order_id", id)
	}

	return deleted, nil
}

// FindByID returns the assembled order or a repository.NotFoundError.
func (c *Coordinator) FindByID(ctx context.Context, id string) (agg *domain.OrderAggregate, err error) {
	defer c.observe(OpFindByID, time.Now(), &err, nil)

	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}

	agg, err = c.store.FindOrder(ctx, id)
	if err != nil {
		return nil, classify(OpFindByID, err)
	}

	return agg, nil
}

// FindAll lists order headers without their items.
func (c *Coordinator) FindAll(ctx context.Context) (orders []domain.Order, err error) {
	defer c.observe(OpFindAll, time.Now(), &err, nil)

	orders, err = c.store.ListOrders(ctx)
	if err != nil {
		return nil, classify(OpFindAll, err)
	}

	return orders, nil
}

func (c *Coordinator) observe(op string, start time.Time, err *error, replayed func() bool) {
	c.recorder.ObserveOperation(op, outcome(*err, replayed != nil && replayed()), time.Since(start))
}

func validateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return &ValidationError{Field: "idempotency_key", Reason: "is required"}
	}
	if strings.TrimSpace(req.Header.ClientID) == "" {
		return &ValidationError{Field: "client_id", Reason: "is required"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must contain at least one item"}
	}

	return validateItems(req.Items)
}

func validateUpdate(id string, req UpdateRequest) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if req.Patch.Status != nil {
		if err := domain.ValidateStatus(*req.Patch.Status); err != nil {
			return err
		}
	}
	if req.Patch.ClientID != nil && strings.TrimSpace(*req.Patch.ClientID) == "" {
		return &ValidationError{Field: "client_id", Reason: "must not be empty"}
	}

	return validateItems(req.Items)
}

func validateItems(items []ItemInput) error {
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].product_id", i), Reason: "is required"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be a positive integer"}
		}
	}

	return nil
}

// normalizeItems collapses repeated products into one line. The line keeps
// the position of the first occurrence and the quantity of the last.
func normalizeItems(items []ItemInput) []ItemInput {
	index := make(map[string]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity = item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}

	return out
}

// priceItems snapshots price = unit price * quantity for each item. It fails
// if any product is missing or a line total does not fit the price column.
func priceItems(ctx context.Context, tx repository.Tx, orderID string, items []ItemInput) ([]domain.OrderItem, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	prices, err := tx.LookupPrices(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []string
	lines := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		unitPrice, ok := prices[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}

		price := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if err := domain.ValidateAmount(price); err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "line total " + err.Error()}
		}

		lines = append(lines, domain.OrderItem{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	if len(missing) > 0 {
		return nil, &ProductNotFoundError{ProductIDs: missing}
	}

	return lines, nil
}

func requireClient(ctx context.Context, tx repository.Tx, clientID string) error {
	exists, err := tx.ClientExists(ctx, clientID)
	if err != nil {
		return err
	}
	if !exists {
		return &repository.NotFoundError{Resource: repository.ClientResource, Key: "id", Value: clientID}
	}

	return nil
}

func orderNotFound(id string) error {
	return &repository.NotFoundError{Resource: repository.OrderResource, Key: "id", Value: id}
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
