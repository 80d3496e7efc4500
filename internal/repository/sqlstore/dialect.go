package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver

	"github.com/CameronXie/order-management/internal/repository"
)

const (
	mysqlDuplicateEntry         = 1062
	mysqlRowIsReferenced        = 1451
	mysqlNoReferencedRow        = 1452
	postgresUniqueViolation     = "23505"
	postgresForeignKeyViolation = "23503"
)

// Dialect captures the differences between the supported SQL engines.
// Queries are written with '?' placeholders and rebound per dialect.
type Dialect struct {
	Name       string
	DriverName string

	numberedParams   bool
	lockSuffix       string
	timestampType    string
	singleConnection bool
	uniqueViolation  func(error) bool
	fkViolation      func(error) bool
}

var (
	MySQL = Dialect{
		Name:            "mysql",
		DriverName:      "mysql",
		lockSuffix:      " FOR UPDATE",
		timestampType:   "DATETIME",
		uniqueViolation: isMySQLUniqueViolation,
		fkViolation:     isMySQLForeignKeyViolation,
	}

	Postgres = Dialect{
		Name:            "postgres",
		DriverName:      "pgx",
		numberedParams:  true,
		lockSuffix:      " FOR UPDATE",
		timestampType:   "TIMESTAMPTZ",
		uniqueViolation: isPostgresUniqueViolation,
		fkViolation:     isPostgresForeignKeyViolation,
	}

	// SQLite serialises writers on a single connection, so row locks are implicit.
	SQLite = Dialect{
		Name:             "sqlite",
		DriverName:       sqliteDriverName,
		timestampType:    "DATETIME",
		singleConnection: true,
		uniqueViolation:  isSQLiteUniqueViolation,
		fkViolation:      isSQLiteForeignKeyViolation,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case MySQL.Name:
		return MySQL, nil
	case Postgres.Name, "postgresql", "pgx":
		return Postgres, nil
	case SQLite.Name, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// rebind rewrites '?' placeholders into the dialect's parameter syntax.
func (d Dialect) rebind(query string) string {
	if !d.numberedParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}

		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}

// translate maps driver errors onto repository sentinels.
func (d Dialect) translate(err error) error {
	if err == nil {
		return nil
	}

	if d.uniqueViolation != nil && d.uniqueViolation(err) {
		return fmt.Errorf("%w: %w", repository.ErrDuplicateKey, err)
	}
	if d.fkViolation != nil && d.fkViolation(err) {
		return fmt.Errorf("%w: %w", repository.ErrReferenced, err)
	}

	return err
}

func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func isMySQLForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) &&
		(mysqlErr.Number == mysqlRowIsReferenced || mysqlErr.Number == mysqlNoReferencedRow)
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation
}

func isPostgresForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == postgresForeignKeyViolation
}

// placeholders returns n comma separated '?' markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
