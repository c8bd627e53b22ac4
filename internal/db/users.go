package db

import (
	"context"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, refresh_token_hash, photo, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.Photo,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, photo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Photo).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (db *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (db *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (db *Postgres) GetUserByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token_hash = $1`, tokenHash))
}

// SetRefreshTokenHash overwrites the user's refresh token digest. A nil hash
// ends the session.
func (db *Postgres) SetRefreshTokenHash(ctx context.Context, userID uuid.UUID, tokenHash *string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, tokenHash)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshTokenHash ends whichever session holds tokenHash and reports
// whether one did.
func (db *Postgres) ClearRefreshTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, updated_at = NOW()
		WHERE refresh_token_hash = $1
	`, tokenHash)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (db *Postgres) UpdateUserProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, photo = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := db.Pool.QueryRow(ctx, query, user.ID, user.Username, user.PasswordHash, user.Photo).
		Scan(&user.UpdatedAt)
	return translate(err)
}

func (db *Postgres) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
