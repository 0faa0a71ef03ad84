package redis_wrapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsKeepURLDefaultsWhenUnset(t *testing.T) {
	cfg := &RedisConfig{ConnectionURL: "redis://localhost:6379/2?pool_size=7"}
	opts, err := cfg.options()
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	cfg.PoolSize = 30
	cfg.ReadTimeoutSeconds = 4
	opts, err = cfg.options()
	require.NoError(t, err)
	assert.Equal(t, 30, opts.PoolSize)
	assert.Equal(t, 4*time.Second, opts.ReadTimeout)
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := (&RedisConfig{ConnectionURL: "http://nope"}).options()
	assert.Error(t, err)
}
