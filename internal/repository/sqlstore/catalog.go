package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

// CreateProduct inserts a product.
func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	_, err := s.exec(ctx, "INSERT INTO products (id, name, price) VALUES (?, ?, ?)", product.ID, product.Name, product.Price)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetProductByID retrieves a product or returns a NotFoundError.
func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.queryRow(ctx, "SELECT id, name, price FROM products WHERE id = ?", id).
		Scan(&product.ID, &product.Name, &product.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: repository.ProductResource,
				Key:      "id",
				Value:    id,
			}
		}
		return nil, fmt.Errorf("failed to retrieve product with id %s: %w", id, err)
	}

	return &product, nil
}

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.query(ctx, "SELECT id, name, price FROM products ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// UpdateProduct replaces the product's name and price.
func (s *Store) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query, args := productAssignments(product).update("products", "id", product.ID)
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}

	return requireAffected(res, repository.ProductResource, product.ID)
}

// DeleteProduct removes a product or returns a NotFoundError.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	return requireAffected(res, repository.ProductResource, id)
}

// CreateClient inserts a client.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) error {
	_, err := s.exec(ctx, "INSERT INTO clients (id, name, email) VALUES (?, ?, ?)", client.ID, client.Name, client.Email)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetClientByID retrieves a client or returns a NotFoundError.
func (s *Store) GetClientByID(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	err := s.queryRow(ctx, "SELECT id, name, email FROM clients WHERE id = ?", id).
		Scan(&client.ID, &client.Name, &client.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: repository.ClientResource,
				Key:      "id",
				Value:    id,
			}
		}
		return nil, fmt.Errorf("failed to retrieve client with id %s: %w", id, err)
	}

	return &client, nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.query(ctx, "SELECT id, name, email FROM clients ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

// UpdateClient replaces the client's name and email.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) error {
	query, args := clientAssignments(client).update("clients", "id", client.ID)
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update client %s: %w", client.ID, err)
	}

	return requireAffected(res, repository.ClientResource, client.ID)
}

// DeleteClient removes a client. Orders still referencing it make the
// delete fail with repository.ErrReferenced.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete client %s: %w", id, err)
	}

	return requireAffected(res, repository.ClientResource, id)
}

// requireAffected turns a write that matched no row into a NotFoundError.
// MySQL reports matched rather than changed rows only with clientFoundRows.
func requireAffected(res sql.Result, resource, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %s: %w", resource, id, err)
	}
	if affected == 0 {
		return &repository.NotFoundError{Resource: resource, Key: "id", Value: id}
	}

	return nil
}
