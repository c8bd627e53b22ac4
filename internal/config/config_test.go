package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REVOCATION_BACKEND", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "15m", cfg.Auth.JWTAccessTTL)
	assert.Equal(t, "168h", cfg.Auth.JWTRefreshTTL)
	assert.Equal(t, "1h", cfg.Auth.RevocationTTL)
	assert.Equal(t, "strict", cfg.Auth.CookieSameSite)
	assert.Equal(t, "postgres", cfg.Auth.RevocationBackend)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()

	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}

func TestLoadPrefersRedisWhenConfigured(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REVOCATION_BACKEND", "")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Auth.RevocationBackend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, got)
}
