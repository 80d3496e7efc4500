package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/CameronXie/order-management/internal/repository/sqlstore"
)

const (
	DefaultPort            = "8080"
	DefaultDriver          = "mysql"
	DefaultSQLitePath      = "orders.db"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the runtime settings of the API.
type Config struct {
	Port            string
	Dialect         sqlstore.Dialect
	DSN             string
	Migrate         bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	dialect, err := sqlstore.DialectFor(getEnv("DB_DRIVER", DefaultDriver))
	if err != nil {
		return nil, err
	}

	migrate, err := parseBool("DB_MIGRATE", false)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", DefaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	if err != nil {
		return nil, err
	}

	dsn, err := buildDSN(dialect)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", DefaultPort),
		Dialect:         dialect,
		DSN:             dsn,
		Migrate:         migrate,
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func buildDSN(dialect sqlstore.Dialect) (string, error) {
	switch dialect.Name {
	case sqlstore.MySQL.Name:
		return mysqlDSN(), nil
	case sqlstore.Postgres.Name:
		return postgresDSN(), nil
	case sqlstore.SQLite.Name:
		return getEnv("SQLITE_PATH", DefaultSQLitePath), nil
	default:
		return "", fmt.Errorf("no DSN builder for driver %q", dialect.Name)
	}
}

func mysqlDSN() string {
	cfg := mysql.NewConfig()
	cfg.User = os.Getenv("MYSQL_USER")
	cfg.Passwd = os.Getenv("MYSQL_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(getEnv("MYSQL_HOST", "localhost"), getEnv("MYSQL_PORT", "3306"))
	cfg.DBName = os.Getenv("MYSQL_DATABASE")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// catalogue updates detect missing rows through RowsAffected
	cfg.ClientFoundRows = true

	return cfg.FormatDSN()
}

func postgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(os.Getenv("POSTGRES_USER")),
		url.QueryEscape(os.Getenv("POSTGRES_PASSWORD")),
		getEnv("POSTGRES_HOST", "localhost:5432"),
		os.Getenv("POSTGRES_DB"),
		getEnv("POSTGRES_SSL", "disable"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}

	return v, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}

	return v, nil
}
