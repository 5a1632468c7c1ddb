//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/utakatalp/league-tally/internal/league"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("league"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewStore(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	results, err := league.ParseResults("Lions;Snakes;win\nTarantulas;FC Awesome;loss\nLions;FC Awesome;win")
	require.NoError(t, err)
	require.NoError(t, s.SaveResults(ctx, results))

	got, err := s.LoadResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, results, got)

	teams, err := s.GetTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, teams["Lions"].Points())

	require.NoError(t, s.DeleteAllResults(ctx))
	n, err := s.CountResults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
