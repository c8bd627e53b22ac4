package service

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expense-tracker/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints and verifies the two token kinds. Access and refresh
// tokens are signed with different secrets so neither can stand in for the
// other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if strings.TrimSpace(cfg.JWTRefreshSecret) == "" {
		return nil, fmt.Errorf("%w: JWT_REFRESH_SECRET is required", ErrMisconfigured)
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("%w: JWT_SECRET and JWT_REFRESH_SECRET must differ", ErrMisconfigured)
	}

	accessTTL, err := parsePositiveDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := parsePositiveDuration(cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	return &TokenIssuer{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (t *TokenIssuer) AccessTTL() time.Duration {
	return t.accessTTL
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

func (t *TokenIssuer) IssueAccessToken(userID uuid.UUID) (string, error) {
	return t.sign(userID, t.accessSecret, t.accessTTL)
}

func (t *TokenIssuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return t.sign(userID, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) VerifyAccessToken(token string) (uuid.UUID, error) {
	return t.verify(token, t.accessSecret)
}

func (t *TokenIssuer) VerifyRefreshToken(token string) (uuid.UUID, error) {
	return t.verify(token, t.refreshSecret)
}

func (t *TokenIssuer) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verify returns ErrTokenExpired for a correctly signed token past its
// expiry and ErrUnauthorized for anything else that fails.
func (t *TokenIssuer) verify(tokenStr string, secret []byte) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrUnauthorized
	}
	if !token.Valid {
		return uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return userID, nil
}

// hashToken is the digest under which refresh tokens and revoked access
// tokens are stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func parsePositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}
