package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the order header as stored in the orders table.
type Order struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	ClientID       string    `json:"client_id"`
	Status         Status    `json:"status"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

// OrderItem is one line of an order. Price is the snapshot taken when the
// line was written (unit price times quantity) and is never recomputed.
type OrderItem struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPatch carries the header fields an update explicitly supplies.
// Nil fields keep their stored value.
type OrderPatch struct {
	Date     *time.Time
	ClientID *string
	Status   *Status
}

// IsEmpty reports whether the patch touches no field.
func (p OrderPatch) IsEmpty() bool {
	return p.Date == nil && p.ClientID == nil && p.Status == nil
}

// ClientSummary holds the client fields shown with an order.
type ClientSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AggregateItem is an order line enriched with product display data.
// ProductName and UnitPrice are nil when the product row is gone.
type AggregateItem struct {
	ProductID   string           `json:"product_id"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	ProductName *string          `json:"product_name,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

// OrderAggregate is the assembled read view of an order.
type OrderAggregate struct {
	Order
	Client *ClientSummary  `json:"client,omitempty"`
	Items  []AggregateItem `json:"items"`
}

// Total sums the price snapshots of all items.
func (a *OrderAggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.Items {
		total = total.Add(item.Price)
	}

	return total
}
