// Package database provides shared database setup for integration tests.
package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/test/util"
)

// NewTestClient creates a database client backed by a fresh per-test schema
// with all migrations applied. The schema and connections are cleaned up
// when the test ends.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()
	ctx := context.Background()

	connStr := util.CreateTestSchema(t)

	require.NoError(t, database.RunMigrationsDSN(connStr, "test"))

	poolCfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return database.NewClientFromPool(pool)
}
