package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/internal/platform/config"
)

func TestNewWithoutURLDisablesCache(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default().Redis
	cfg.URL = "redis://" + mr.Addr()
	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Health(context.Background()))
}

func TestRegisterMetricsExportsPoolStats(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	reg := prometheus.NewRegistry()
	require.NoError(t, client.RegisterMetrics(reg))

	count, err := testutil.GatherAndCount(reg, "sowell_redis_pool_connections", "sowell_redis_pool_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}
