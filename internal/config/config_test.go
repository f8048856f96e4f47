package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("ACCESS_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("QUEUE_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("REPORT_CACHE_TTL", "1m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.True(t, cfg.RedisDisabled)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ACCESS_TTL", "soon")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("REDIS_DISABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.RedisDisabled)
}

func TestValidate(t *testing.T) {
	base := App{
		Env:              "dev",
		StoreBackend:     "memory",
		QueueBackend:     "memory",
		RateLimitBackend: "memory",
		JWTSigningKey:    DefaultSigningKey,
		AccessTTL:        time.Minute,
		RefreshTTL:       time.Hour,
	}
	require.NoError(t, base.Validate())

	prod := base
	prod.Env = "production"
	assert.ErrorContains(t, prod.Validate(), "JWT_SIGNING_KEY")
	prod.JWTSigningKey = "real-secret"
	assert.NoError(t, prod.Validate())

	lite := base
	lite.StoreBackend = "sqlite"
	lite.SQLitePath = "data/test.db"
	require.NoError(t, lite.Validate())
	assert.Equal(t, "data/test.db", lite.StoreDSN())

	bad := base
	bad.StoreBackend = "mysql"
	assert.ErrorContains(t, bad.Validate(), "STORE_BACKEND")

	noRedis := base
	noRedis.RedisDisabled = true
	noRedis.QueueBackend = "redis"
	assert.ErrorContains(t, noRedis.Validate(), "REDIS_DISABLED")
}
