package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Migration is one schema step. Statements run one by one since the MySQL
// driver rejects multi-statement strings by default.
type Migration struct {
	Version    string
	Statements func(d Dialect) []string
}

// Migrations lists every schema migration.
var Migrations = []Migration{
	{Version: "1.0.0", Statements: schemaV1},
}

func schemaV1(d Dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS clients (
    id VARCHAR(36) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS products (
    id VARCHAR(36) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price DECIMAL(12, 2) NOT NULL
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
    id VARCHAR(36) PRIMARY KEY,
    date %s NOT NULL,
    client_id VARCHAR(36) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'EM_ANALISE',
    idempotency_key VARCHAR(255) NOT NULL UNIQUE,
    FOREIGN KEY (client_id) REFERENCES clients (id)
)`, d.timestampType),
		`CREATE TABLE IF NOT EXISTS idempotency_map (
    idempotency_key VARCHAR(255) PRIMARY KEY,
    order_id VARCHAR(36) NOT NULL,
    FOREIGN KEY (order_id) REFERENCES orders (id)
)`,
		`CREATE TABLE IF NOT EXISTS order_items (
    order_id VARCHAR(36) NOT NULL,
    product_id VARCHAR(36) NOT NULL,
    line_no INTEGER NOT NULL,
    qty INTEGER NOT NULL CHECK (qty > 0),
    price DECIMAL(12, 2) NOT NULL,
    PRIMARY KEY (order_id, product_id),
    FOREIGN KEY (order_id) REFERENCES orders (id)
)`,
	}
}

// Migrate applies every migration newer than the recorded schema version.
func (s *Store) Migrate(ctx context.Context) error {
	createVersionTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_version (
    version VARCHAR(32) PRIMARY KEY,
    applied_at %s NOT NULL
)`, s.dialect.timestampType)

	if _, err := s.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	pending, err := pendingMigrations(Migrations, current)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied version, or nil on a fresh database.
func (s *Store) schemaVersion(ctx context.Context) (*semver.Version, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("query schema version: %w", err)
	}
	defer rows.Close()

	var current *semver.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}

		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("parse schema version %q: %w", raw, err)
		}

		if current == nil || v.GreaterThan(current) {
			current = v
		}
	}

	return current, rows.Err()
}

func (s *Store) apply(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements(s.dialect) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(
		ctx,
		s.dialect.rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"),
		m.Version, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// pendingMigrations returns migrations newer than current, in version order.
func pendingMigrations(all []Migration, current *semver.Version) ([]Migration, error) {
	type versioned struct {
		version   *semver.Version
		migration Migration
	}

	pending := make([]versioned, 0, len(all))
	for _, m := range all {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version %q: %w", m.Version, err)
		}

		if current != nil && !v.GreaterThan(current) {
			continue
		}
		pending = append(pending, versioned{version: v, migration: m})
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].version.LessThan(pending[j].version)
	})

	out := make([]Migration, len(pending))
	for i, p := range pending {
		out[i] = p.migration
	}

	return out, nil
}
