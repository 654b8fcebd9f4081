package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 168*time.Hour, cfg.TicketAutoCloseAfter)
	assert.Equal(t, 50, cfg.DBMaxOpenConns)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("QUERY_CACHE_TTL", "not-a-duration")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "-3")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, time.Minute, cfg.QueryCacheTTL)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DSN(), "password=secret")
	assert.Equal(t, 50, cfg.DBMaxOpenConns)
}
