package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CameronXie/order-management/internal/repository"
)

// querier is implemented by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// statements binds a querier to a dialect. Read statements live on it so
// they are shared by the store and by open transactions.
type statements struct {
	q       querier
	dialect Dialect
}

func (s statements) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.q.ExecContext(ctx, s.dialect.rebind(query), args...)
	return res, s.dialect.translate(err)
}

func (s statements) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s statements) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// Store provides SQL-backed order, product and client persistence.
type Store struct {
	statements
	db *sql.DB
}

var (
	_ repository.Store             = (*Store)(nil)
	_ repository.ProductRepository = (*Store)(nil)
	_ repository.ClientRepository  = (*Store)(nil)
)

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		statements: statements{q: db, dialect: dialect},
		db:         db,
	}
}

// Open connects to the database described by dsn and verifies connectivity.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect.Name, err)
	}

	if dialect.singleConnection {
		// SQLite benefits from a single writer, and pragmas are per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply %q: %w", pragma, err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect.Name, err)
	}

	return New(db, dialect), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for health checks and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithinTx runs fn in a transaction bound to ctx. The transaction is
// released exactly once: committed when fn succeeds, rolled back otherwise,
// including when fn panics or ctx is cancelled.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}

		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	if err := fn(ctx, &txStatements{statements: statements{q: sqlTx, dialect: s.dialect}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", s.dialect.translate(err))
	}
	committed = true

	return nil
}

// txStatements adds the write statements available only inside WithinTx.
type txStatements struct {
	statements
}

var _ repository.Tx = (*txStatements)(nil)
