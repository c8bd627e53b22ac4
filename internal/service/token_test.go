package service

import (
	"errors"
	"testing"
	"time"

	"github.com/expense-tracker/backend/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		JWTAccessTTL:     "15m",
		JWTRefreshTTL:    "168h",
		RevocationTTL:    "1h",
		CookieSameSite:   "strict",
	}
}

func TestNewTokenIssuerValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{"missing access secret", func(c *config.AuthConfig) { c.JWTSecret = "" }},
		{"missing refresh secret", func(c *config.AuthConfig) { c.JWTRefreshSecret = " " }},
		{"shared secret", func(c *config.AuthConfig) { c.JWTRefreshSecret = c.JWTSecret }},
		{"bad access ttl", func(c *config.AuthConfig) { c.JWTAccessTTL = "soon" }},
		{"negative refresh ttl", func(c *config.AuthConfig) { c.JWTRefreshTTL = "-1h" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tt.mutate(&cfg)
			_, err := NewTokenIssuer(cfg)
			assert.ErrorIs(t, err, ErrMisconfigured)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	userID := uuid.New()

	access, err := issuer.IssueAccessToken(userID)
	require.NoError(t, err)
	got, err := issuer.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	refresh, err := issuer.IssueRefreshToken(userID)
	require.NoError(t, err)
	got, err = issuer.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	userID := uuid.New()

	access, err := issuer.IssueAccessToken(userID)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(userID)
	require.NoError(t, err)

	_, err = issuer.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = issuer.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokensIssuedInSameSecondDiffer(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	fixed := time.Unix(1_700_000_000, 0)
	issuer.now = func() time.Time { return fixed }

	userID := uuid.New()
	first, err := issuer.IssueRefreshToken(userID)
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken(userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, hashToken(first), hashToken(second))
}

func TestExpiredAccessToken(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)

	now := time.Now()
	issuer.now = func() time.Time { return now }
	token, err := issuer.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	issuer.now = func() time.Time { return now.Add(16 * time.Minute) }
	_, err = issuer.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken("not-a-jwt")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestRevocationTTL(t *testing.T) {
	ttl, err := RevocationTTL(testAuthConfig())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	cfg := testAuthConfig()
	cfg.RevocationTTL = cfg.JWTAccessTTL
	ttl, err = RevocationTTL(cfg)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)

	tests := map[string]func(*config.AuthConfig){
		"shorter than access ttl": func(c *config.AuthConfig) { c.RevocationTTL = "1m" },
		"unparsable":              func(c *config.AuthConfig) { c.RevocationTTL = "forever" },
		"bad access ttl":          func(c *config.AuthConfig) { c.JWTAccessTTL = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testAuthConfig()
			mutate(&cfg)
			_, err := RevocationTTL(cfg)
			assert.ErrorIs(t, err, ErrMisconfigured)
		})
	}
}
