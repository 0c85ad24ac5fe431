//go:build integration

package scheduler

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shaiso/Conveyor/internal/repo"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("conveyor"),
		postgres.WithUsername("conveyor"),
		postgres.WithPassword("conveyor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := repo.NewPool(ctx, repo.PoolConfig{URL: connStr, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestAdvisoryLeader(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t)

	first := NewAdvisoryLeader(pool, 777, nil)
	second := NewAdvisoryLeader(pool, 777, nil)

	ok, err := first.IsLeader(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// повторная проверка подтверждает лидерство на том же соединении
	ok, err = first.IsLeader(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.IsLeader(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, pool.Stat().AcquiredConns())

	first.Release(ctx)
	assert.EqualValues(t, 0, pool.Stat().AcquiredConns())

	ok, err = second.IsLeader(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	second.Release(ctx)
}
