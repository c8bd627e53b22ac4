package db

import (
	"context"
	"time"
)

// RevocationList keeps revoked access token digests in Postgres. Expired rows
// are ignored by lookups and purged by the next Revoke.
type RevocationList struct {
	db  *Postgres
	ttl time.Duration
}

func NewRevocationList(db *Postgres, ttl time.Duration) *RevocationList {
	return &RevocationList{db: db, ttl: ttl}
}

func (r *RevocationList) Revoke(ctx context.Context, tokenHash string) error {
	query := `
		WITH purged AS (
			DELETE FROM revoked_tokens
			WHERE expires_at <= NOW() AND token_hash <> $1
		)
		INSERT INTO revoked_tokens (token_hash, created_at, expires_at)
		VALUES ($1, NOW(), NOW() + make_interval(secs => $2))
		ON CONFLICT (token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Pool.Exec(ctx, query, tokenHash, r.ttl.Seconds())
	return err
}

func (r *RevocationList) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var revoked bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > NOW()
		)
	`, tokenHash).Scan(&revoked)
	return revoked, err
}
