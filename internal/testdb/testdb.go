// Package testdb provides the shared Postgres harness for integration
// tests. Tests skip when no database is reachable, so the unit suite stays
// runnable without infrastructure.
package testdb

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alex1431999/keyword-monitor/internal/schema"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// New connects to the test database, ensures the schema, and registers a
// cleanup that truncates every table. It skips the calling test when no
// database is reachable.
func New(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envIntOrDefault("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DATABASE", "keywordmonitor_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "keywordmonitor"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}

	client, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("test postgres unavailable: %v", err)
	}

	ctx := context.Background()
	if err := schema.Ensure(ctx, client); err != nil {
		client.Close()
		t.Fatalf("ensuring test schema: %v", err)
	}

	t.Cleanup(func() {
		_, err := client.DB.ExecContext(ctx,
			`TRUNCATE mentions, keywords, indexes, users, meta`)
		if err != nil {
			t.Logf("truncating test tables: %v", err)
		}
		client.Close()
	})
	return client
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
