package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

const orderAggregateQuery = `
SELECT o.id,
       o.date,
       o.client_id,
       o.status,
       o.idempotency_key,
       c.name,
       c.email,
       oi.product_id,
       oi.qty,
       oi.price,
       p.name,
       p.price
FROM orders o
    LEFT JOIN clients c ON c.id = o.client_id
    LEFT JOIN order_items oi ON oi.order_id = o.id
    LEFT JOIN products p ON p.id = oi.product_id
WHERE o.id = ?
ORDER BY oi.line_no`

// aggregateRow is one row of the order/client/item/product join. Every
// column to the right of the order header may be NULL.
type aggregateRow struct {
	orderID        string
	date           time.Time
	clientID       string
	status         string
	idempotencyKey string

	clientName  sql.NullString
	clientEmail sql.NullString

	productID sql.NullString
	quantity  sql.NullInt64
	price     decimal.NullDecimal

	productName  sql.NullString
	productPrice decimal.NullDecimal
}

// FindOrder assembles the order aggregate with a single join query.
func (s statements) FindOrder(ctx context.Context, id string) (*domain.OrderAggregate, error) {
	rows, err := s.query(ctx, orderAggregateQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order with id %s: %w", id, err)
	}
	defer rows.Close()

	var joined []aggregateRow
	for rows.Next() {
		var r aggregateRow
		err := rows.Scan(
			&r.orderID, &r.date, &r.clientID, &r.status, &r.idempotencyKey,
			&r.clientName, &r.clientEmail,
			&r.productID, &r.quantity, &r.price,
			&r.productName, &r.productPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order %s: %w", id, err)
		}
		joined = append(joined, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order %s: %w", id, err)
	}

	agg := assembleOrder(joined)
	if agg == nil {
		return nil, &repository.NotFoundError{
			Resource: repository.OrderResource,
			Key:      "id",
			Value:    id,
		}
	}

	return agg, nil
}

// assembleOrder folds join rows into an aggregate. It returns nil for no
// rows. Items keep row order and repeated product IDs are folded into the
// first occurrence.
func assembleOrder(rows []aggregateRow) *domain.OrderAggregate {
	if len(rows) == 0 {
		return nil
	}

	head := rows[0]
	agg := &domain.OrderAggregate{
		Order: domain.Order{
			ID:             head.orderID,
			Date:           head.date.UTC(),
			ClientID:       head.clientID,
			Status:         domain.Status(head.status),
			IdempotencyKey: head.idempotencyKey,
		},
		Items: make([]domain.AggregateItem, 0, len(rows)),
	}

	if head.clientName.Valid {
		agg.Client = &domain.ClientSummary{
			ID:    head.clientID,
			Name:  head.clientName.String,
			Email: head.clientEmail.String,
		}
	}

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if !r.productID.Valid {
			continue
		}
		if _, ok := seen[r.productID.String]; ok {
			continue
		}
		seen[r.productID.String] = struct{}{}

		item := domain.AggregateItem{
			ProductID: r.productID.String,
			Quantity:  int(r.quantity.Int64),
			Price:     r.price.Decimal,
		}
		if r.productName.Valid {
			name := r.productName.String
			item.ProductName = &name
		}
		if r.productPrice.Valid {
			unitPrice := r.productPrice.Decimal
			item.UnitPrice = &unitPrice
		}

		agg.Items = append(agg.Items, item)
	}

	return agg
}
