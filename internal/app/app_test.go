package app

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrg-tools/short-url/internal/cache"
	"github.com/jrg-tools/short-url/internal/config"
)

func TestNewCache(t *testing.T) {
	logger := httplog.NewLogger("short-url-test", httplog.Options{})

	t.Run("memory backend", func(t *testing.T) {
		cfg := &config.Config{
			Cache: config.Cache{Backend: config.CacheMemory, TTL: time.Minute},
		}

		c, closeCache, err := newCache(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &cache.Memory{}, c)
		assert.NoError(t, closeCache())
	})

	t.Run("defaults to memory backend", func(t *testing.T) {
		cfg := &config.Config{
			Cache: config.Cache{TTL: time.Minute},
		}

		c, closeCache, err := newCache(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &cache.Memory{}, c)
		assert.NoError(t, closeCache())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{
			Cache: config.Cache{Backend: "memcached"},
		}

		c, closeCache, err := newCache(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Nil(t, c)
		assert.Nil(t, closeCache)
	})
}
