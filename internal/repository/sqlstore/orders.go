package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/CameronXie/order-management/internal/domain"
)

// ListOrders returns order headers without items, newest first.
func (s statements) ListOrders(ctx context.Context) ([]domain.Order, error) {
	const query = `
SELECT id, date, client_id, status, idempotency_key
FROM orders
ORDER BY date DESC, id`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order  domain.Order
			status string
		)
		if err := rows.Scan(&order.ID, &order.Date, &order.ClientID, &status, &order.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		order.Status = domain.Status(status)
		order.Date = order.Date.UTC()
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// FindOrderIDByIdempotencyKey resolves an idempotency key to the order it created.
func (s statements) FindOrderIDByIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	var orderID string
	err := s.queryRow(ctx, "SELECT order_id FROM idempotency_map WHERE idempotency_key = ?", key).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query idempotency key: %w", err)
	}

	return orderID, true, nil
}

// ClientExists reports whether a client row with id exists.
func (s statements) ClientExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.queryRow(ctx, "SELECT 1 FROM clients WHERE id = ?", id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query client %s: %w", id, err)
	}

	return true, nil
}

// InsertOrder writes the order header row.
func (t *txStatements) InsertOrder(ctx context.Context, order *domain.Order) error {
	const query = "INSERT INTO orders (id, date, client_id, status, idempotency_key) VALUES (?, ?, ?, ?, ?)"

	_, err := t.exec(ctx, query, order.ID, order.Date.UTC(), order.ClientID, string(order.Status), order.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// InsertIdempotencyRecord maps key to orderID.
func (t *txStatements) InsertIdempotencyRecord(ctx context.Context, key, orderID string) error {
	_, err := t.exec(ctx, "INSERT INTO idempotency_map (idempotency_key, order_id) VALUES (?, ?)", key, orderID)
	if err != nil {
		return fmt.Errorf("failed to create idempotency record: %w", err)
	}

	return nil
}

// InsertItems writes all items in one multi-row statement, numbering lines
// in slice order.
func (t *txStatements) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO order_items (order_id, product_id, line_no, qty, price) VALUES ")

	args := make([]any, 0, len(items)*5)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(" + placeholders(5) + ")")
		args = append(args, orderID, item.ProductID, i+1, item.Quantity, item.Price)
	}

	if _, err := t.exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("failed to create items for order %s: %w", orderID, err)
	}

	return nil
}

// LockOrder checks the order exists and, where supported, locks its row
// until the transaction ends.
func (t *txStatements) LockOrder(ctx context.Context, id string) (bool, error) {
	var found string
	err := t.queryRow(ctx, "SELECT id FROM orders WHERE id = ?"+t.dialect.lockSuffix, id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock order %s: %w", id, err)
	}

	return true, nil
}

// UpdateOrder applies only the fields the patch supplies.
func (t *txStatements) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	query, args := orderAssignments(patch).update("orders", "id", id)
	if _, err := t.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}

	return nil
}

// DeleteItems removes every item of the order.
func (t *txStatements) DeleteItems(ctx context.Context, orderID string) error {
	if _, err := t.exec(ctx, "DELETE FROM order_items WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to delete items for order %s: %w", orderID, err)
	}

	return nil
}

// DeleteIdempotencyRecords removes the key mapping that points at the order.
func (t *txStatements) DeleteIdempotencyRecords(ctx context.Context, orderID string) error {
	if _, err := t.exec(ctx, "DELETE FROM idempotency_map WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to delete idempotency records for order %s: %w", orderID, err)
	}

	return nil
}

// DeleteOrder removes the order row and reports whether it existed.
func (t *txStatements) DeleteOrder(ctx context.Context, id string) (bool, error) {
	res, err := t.exec(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected deleting order %s: %w", id, err)
	}

	return affected > 0, nil
}
