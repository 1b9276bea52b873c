package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationConfig(t *testing.T) *PostgresConfig {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("set INTEGRATION_TEST=true to run against a live database")
	}

	cfg := DefaultPostgresConfig()
	if v := os.Getenv("TEST_POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	if v, err := strconv.Atoi(os.Getenv("TEST_POSTGRES_PORT")); err == nil {
		cfg.Port = v
	}
	if v := os.Getenv("TEST_POSTGRES_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("TEST_POSTGRES_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("TEST_POSTGRES_DATABASE"); v != "" {
		cfg.Database = v
	}
	cfg.MaxRetries = 0
	return cfg
}

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *PostgresConfig)
		searchPath string
		maxConns   int32
		minConns   int32
	}{
		{
			name:     "defaults",
			mutate:   func(c *PostgresConfig) {},
			maxConns: 25,
			minConns: 5,
		},
		{
			name: "tenant schema pinned",
			mutate: func(c *PostgresConfig) {
				c.SearchPath = "hotel_cafeluna"
				c.MaxConns = 4
				c.MinConns = 1
			},
			searchPath: "hotel_cafeluna",
			maxConns:   4,
			minConns:   1,
		},
		{
			name: "min above max is ignored",
			mutate: func(c *PostgresConfig) {
				c.MaxConns = 4
				c.MinConns = 10
			},
			maxConns: 4,
			minConns: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPostgresConfig()
			tt.mutate(cfg)

			pc, err := cfg.poolConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.maxConns, pc.MaxConns)
			assert.Equal(t, tt.minConns, pc.MinConns)
			assert.Equal(t, tt.searchPath, pc.ConnConfig.RuntimeParams["search_path"])
			assert.NotNil(t, pc.ConnConfig.Tracer)
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := &PostgresConfig{
		Host: "db", Port: 5433, User: "orders", Password: "pw", Database: "ordering", SSLMode: "require",
		SearchPath: "hotel_x",
	}
	assert.Equal(t, "host=db port=5433 user=orders password=pw dbname=ordering sslmode=require", cfg.DSN())
}

func TestNewPostgres_CancelledWhileRetrying(t *testing.T) {
	cfg := &PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "nobody",
		Database:       "none",
		SSLMode:        "disable",
		MaxRetries:     5,
		RetryInterval:  time.Minute,
		ConnectTimeout: 200 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err := NewPostgres(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestPostgresDB_HealthCheck_Integration(t *testing.T) {
	cfg := integrationConfig(t)
	ctx := context.Background()

	db, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.IsConnected(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
	assert.NotNil(t, db.Stats())
}

func TestPostgresDB_SearchPathIsolatesTenants_Integration(t *testing.T) {
	cfg := integrationConfig(t)
	ctx := context.Background()

	admin, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer admin.Close()

	schemas := []string{"hotel_dbtest_a", "hotel_dbtest_b"}
	for _, s := range schemas {
		require.NoError(t, admin.Exec(ctx, "DROP SCHEMA IF EXISTS "+s+" CASCADE"))
		require.NoError(t, admin.Exec(ctx, "CREATE SCHEMA "+s))
	}
	t.Cleanup(func() {
		for _, s := range schemas {
			_ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+s+" CASCADE")
		}
	})

	for i, s := range schemas {
		pcfg := *cfg
		pcfg.SearchPath = s
		pcfg.MinConns = 0
		db, err := NewPostgres(ctx, &pcfg)
		require.NoError(t, err)

		require.NoError(t, db.Exec(ctx, "CREATE TABLE orders (id SERIAL PRIMARY KEY, table_number INT)"))
		tx, err := db.BeginTx(ctx)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, "INSERT INTO orders (table_number) VALUES ($1)", i+1)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		db.Close()
	}

	for i, s := range schemas {
		var table int
		require.NoError(t, admin.QueryRow(ctx, "SELECT table_number FROM "+s+".orders").Scan(&table))
		assert.Equal(t, i+1, table)
	}
}
