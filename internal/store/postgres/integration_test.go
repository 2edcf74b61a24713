//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestStore connects to DATABASE_URL when set, otherwise starts a
// throwaway PostgreSQL container.
func setupTestStore(t *testing.T, ctx context.Context) *PostgresStore {
	t.Helper()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		s, err := New(ctx, dbURL)
		if err == nil {
			t.Cleanup(func() { s.Close() })
			return s
		}
		t.Logf("DATABASE_URL set but connection failed, using testcontainer: %v", err)
	}

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("eventsvc_test"),
		tcpostgres.WithUsername("eventsvc"),
		tcpostgres.WithPassword("eventsvc-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t, ctx)

	// Re-running the schema bootstrap on an existing database is a no-op.
	require.NoError(t, runMigrations(s.db))

	require.NoError(t, s.Ping(ctx))

	first, err := s.InsertEvent(ctx, "11111111-e89b-12d3-a456-426614174000", "first")
	require.NoError(t, err)
	second, err := s.InsertEvent(ctx, "22222222-e89b-12d3-a456-426614174000", "hello")
	require.NoError(t, err)
	assert.Greater(t, second, first, "ids increase in insertion order")

	rows, err := s.ListRecentEvents(ctx, 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "hello", rows[0].Message)
	assert.Equal(t, second, rows[0].ID)
	assert.False(t, rows[0].CreatedAt.IsZero())

	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].CreatedAt.After(rows[i-1].CreatedAt), "rows must be newest first")
	}

	limited, err := s.ListRecentEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
