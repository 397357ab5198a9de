//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"sowell/internal/platform/postgres"
	"sowell/pkg/testutil/containers"
)

func TestConcurrentMigrateAppliesEachVersionOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)

	_, err := pg.DB.ExecContext(ctx, `DROP DATABASE IF EXISTS migrate_race`)
	require.NoError(t, err)
	_, err = pg.DB.ExecContext(ctx, `CREATE DATABASE migrate_race`)
	require.NoError(t, err)

	dsn, err := url.Parse(pg.DSN)
	require.NoError(t, err)
	dsn.Path = "/migrate_race"

	const instances = 4
	dbs := make([]*sql.DB, instances)
	for i := range dbs {
		dbs[i], err = sql.Open("postgres", dsn.String())
		require.NoError(t, err)
		t.Cleanup(func() { _ = dbs[i].Close() })
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, db := range dbs {
		g.Go(func() error { return postgres.Migrate(gctx, db, nil) })
	}
	require.NoError(t, g.Wait())

	provider, err := postgres.NewMigrator(dbs[0])
	require.NoError(t, err)
	version, err := provider.GetDBVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	var applied int
	require.NoError(t, dbs[0].QueryRowContext(ctx,
		`SELECT count(*) FROM goose_db_version WHERE version_id > 0 AND is_applied`).Scan(&applied))
	assert.Equal(t, 3, applied)
}
