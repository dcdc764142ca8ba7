package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("it falls back to defaults", func(t *testing.T) {
		t.Setenv("PAGE_CACHE_TTL", "")
		t.Setenv("PAGE_SIZE", "")
		t.Setenv("CSRF_ENABLED", "")

		cfg := Load()
		assert.Equal(t, 20*time.Second, cfg.PageCacheTTL)
		assert.Equal(t, 10, cfg.PageSize)
		assert.True(t, cfg.CSRFEnabled)
	})

	t.Run("it reads typed values from the environment", func(t *testing.T) {
		t.Setenv("PAGE_CACHE_TTL", "1m")
		t.Setenv("PAGE_SIZE", "25")
		t.Setenv("CSRF_ENABLED", "false")
		t.Setenv("DB_DRIVER", "sqlite")

		cfg := Load()
		assert.Equal(t, time.Minute, cfg.PageCacheTTL)
		assert.Equal(t, 25, cfg.PageSize)
		assert.False(t, cfg.CSRFEnabled)
		assert.Equal(t, "sqlite", cfg.DBDriver)
	})

	t.Run("it ignores malformed numbers", func(t *testing.T) {
		t.Setenv("PAGE_SIZE", "ten")
		t.Setenv("PAGE_CACHE_TTL", "soon")

		cfg := Load()
		assert.Equal(t, 10, cfg.PageSize)
		assert.Equal(t, 20*time.Second, cfg.PageCacheTTL)
	})
}
