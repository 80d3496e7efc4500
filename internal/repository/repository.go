package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/CameronXie/order-management/internal/domain"
)

// OrderReader provides the read side of order storage.
type OrderReader interface {
	// FindOrder returns the assembled aggregate or a NotFoundError.
	FindOrder(ctx context.Context, id string) (*domain.OrderAggregate, error)
}

// Store is the order storage used by the coordinator.
type Store interface {
	OrderReader

	// WithinTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back on any error or panic.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// ListOrders returns order headers without items, newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// FindOrderIDByIdempotencyKey resolves a key to its order ID.
	FindOrderIDByIdempotencyKey(ctx context.Context, key string) (string, bool, error)
}

// Tx is the set of typed statements available inside a transaction.
type Tx interface {
	OrderReader

	// LookupPrices maps each existing product ID to its current unit price.
	// Missing IDs are absent from the result.
	LookupPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)

	FindOrderIDByIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	ClientExists(ctx context.Context, id string) (bool, error)

	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertIdempotencyRecord(ctx context.Context, key, orderID string) error
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error

	// LockOrder reports whether the order exists, locking its row where the
	// dialect supports it.
	LockOrder(ctx context.Context, id string) (bool, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error

	DeleteItems(ctx context.Context, orderID string) error
	DeleteIdempotencyRecords(ctx context.Context, orderID string) error
	DeleteOrder(ctx context.Context, id string) (bool, error)
}

// ProductRepository manages the product catalogue.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// UpdateProduct replaces the name and price. Existing order items keep
	// the price snapshotted when they were written.
	UpdateProduct(ctx context.Context, product *domain.Product) error

	// DeleteProduct removes the product. Order items referencing it remain.
	DeleteProduct(ctx context.Context, id string) error
}

// ClientRepository manages clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClientByID(ctx context.Context, id string) (*domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error

	// DeleteClient removes the client, failing with ErrReferenced while
	// orders still belong to it.
	DeleteClient(ctx context.Context, id string) error
}
