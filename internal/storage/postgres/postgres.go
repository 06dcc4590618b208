// ABOUTME: PostgreSQL backend for the review table using sqlx and lib/pq
// ABOUTME: Creates the target database on first use, then the table and indexes
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/harper/review-insights/internal/config"
	"github.com/harper/review-insights/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// adminDatabase is the maintenance database used to create the target one
const adminDatabase = "postgres"

// Config holds connection settings for the PostgreSQL backend
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Table    string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFrom extracts the PostgreSQL settings from the pipeline config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Host:            cfg.PGHost,
		Port:            cfg.PGPort,
		User:            cfg.PGUser,
		Password:        cfg.PGPassword,
		Database:        cfg.PGDatabase,
		SSLMode:         cfg.PGSSLMode,
		Table:           cfg.Table,
		MaxOpenConns:    4,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DSN returns a connection URL for the named database
func (c Config) DSN(database string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	return u.String()
}

// Store persists reviews in a PostgreSQL table
type Store struct {
	*storage.SQLStore
}

// New wraps an open connection. Call Migrate before writing.
func New(db *sqlx.DB, table string) (*Store, error) {
	s, err := storage.NewSQLStore(db, storage.Postgres, table)
	if err != nil {
		return nil, err
	}
	return &Store{SQLStore: s}, nil
}

// Open ensures the database exists, connects to it and creates the table
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := storage.ValidateTable(cfg.Table); err != nil {
		return nil, err
	}

	admin, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN(adminDatabase))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", adminDatabase, err)
	}
	err = EnsureDatabase(ctx, admin, cfg.Database)
	_ = admin.Close()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s, err := New(db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureDatabase creates the named database when pg_database lacks it
func EnsureDatabase(ctx context.Context, admin *sqlx.DB, name string) error {
	if name == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	var exists bool
	if err := admin.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name); err != nil {
		return fmt.Errorf("failed to check for database %s: %w", name, err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE takes no bind parameters
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}
