package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Host: "cache.internal", Port: "6380", Password: "pw", DB: 3})

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, dialTimeout, opts.DialTimeout)
	assert.Equal(t, ioTimeout, opts.ReadTimeout)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "expected cache miss when Redis disabled")

	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestAnalysisKey(t *testing.T) {
	a := AnalysisKey("causal", map[string]string{"start": "2024-01-01", "end": "2024-03-31"})
	b := AnalysisKey("causal", map[string]string{"end": "2024-03-31", "start": "2024-01-01"})
	c := AnalysisKey("causal", map[string]string{"start": "2024-01-02", "end": "2024-03-31"})

	assert.Equal(t, a, b, "parameter order must not change the key")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "analysis:causal:"))
}

func TestForecastKey(t *testing.T) {
	assert.Equal(t, "forecast:2024-01-01:2024-03-31:7", ForecastKey("2024-01-01", "2024-03-31", 7))
}
