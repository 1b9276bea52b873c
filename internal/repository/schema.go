package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// GlobalSchema creates the admins table in the default schema
const GlobalSchema = `
CREATE TABLE IF NOT EXISTS admins (
	id            TEXT PRIMARY KEY,
	hotel_name    TEXT NOT NULL,
	tenant_id     TEXT NOT NULL UNIQUE,
	admin_name    TEXT NOT NULL,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'admin',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// partitionTables is run with search_path set to the tenant schema
var partitionTables = []string{
	`CREATE TABLE IF NOT EXISTS chefs (
		id            TEXT PRIMARY KEY,
		chef_id       TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'chef',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_lower_idx ON categories (lower(name))`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		description TEXT NOT NULL DEFAULT '',
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
		image       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		items        JSONB NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		table_number INTEGER NOT NULL CHECK (table_number > 0),
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_created_idx ON orders (status, created_at DESC)`,
}

// MigrateGlobal creates the global tables
func MigrateGlobal(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, GlobalSchema); err != nil {
		return fmt.Errorf("create admins table: %w", err)
	}
	return nil
}

// MigratePartition creates schema and its tables. The caller has already
// validated schema against the tenant id pattern, so quoting with
// pgx.Identifier is enough.
func MigratePartition(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	ident := pgx.Identifier{schema}.Sanitize()
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	for _, stmt := range partitionTables {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema %s: %w", schema, err)
		}
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapNoRows turns pgx.ErrNoRows into domain.ErrNotFound
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// mapWriteError translates constraint violations into domain errors
func mapWriteError(err error) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, err.Error())
	case pgForeignKeyViolation:
		return domain.NewValidationError("category", "does not exist")
	}
	return err
}
