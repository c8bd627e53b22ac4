package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/expense-tracker/backend/internal/config"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresURL(t *testing.T) {
	t.Run("database-url-wins", func(t *testing.T) {
		got, err := buildPostgresURL(config.PostgresConfig{DatabaseURL: "postgres://x@y/z", User: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://x@y/z", got)
	})

	t.Run("from-parts", func(t *testing.T) {
		got, err := buildPostgresURL(config.PostgresConfig{
			Host: "db", Port: "5433", User: "app", Password: "p@ss", Database: "ledger", SSLMode: "disable",
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres://app:p%40ss@db:5433/ledger?sslmode=disable", got)
	})

	t.Run("missing-user", func(t *testing.T) {
		_, err := buildPostgresURL(config.PostgresConfig{Database: "ledger"})
		assert.Error(t, err)
	})
}

func TestTranslateNoRows(t *testing.T) {
	assert.True(t, IsNoRows(ErrNotFound))
	assert.False(t, IsNoRows(nil))
	assert.False(t, IsDuplicate(ErrNotFound, ConstraintUsersEmail))
	assert.True(t, IsDuplicate(&DuplicateError{Constraint: ConstraintUsersEmail}, ConstraintUsersEmail))
	assert.ErrorIs(t, &DuplicateError{Constraint: "x"}, ErrDuplicate)
}

func TestTranslatePgErrors(t *testing.T) {
	err := translate(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: ConstraintUsersEmail})
	assert.True(t, IsDuplicate(err, ConstraintUsersEmail))

	for _, code := range []string{codeCheckViolation, codeNumericOutOfRange, codeInvalidTextRepresent} {
		err := translate(&pgconn.PgError{Code: code, Message: "rejected"})
		assert.ErrorIs(t, err, ErrInvalidValue, code)
	}

	other := &pgconn.PgError{Code: "40001"}
	assert.Same(t, other, translate(other))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), ErrNotFound)
	assert.NoError(t, translate(nil))
}

func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, config.PostgresConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	pg := &Postgres{Pool: pool}
	require.NoError(t, pg.Migrate(ctx))
	return pg
}

func newTestUser(t *testing.T, pg *Postgres) *model.User {
	t.Helper()
	id := uuid.New()
	user := &model.User{
		ID:           id,
		Username:     "user-" + id.String()[:8],
		Email:        id.String()[:8] + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, pg.CreateUser(context.Background(), user))
	t.Cleanup(func() { _ = pg.DeleteUser(context.Background(), id) })
	return user
}

func TestUsersIntegration(t *testing.T) {
	pg := openTestPostgres(t)
	ctx := context.Background()
	user := newTestUser(t, pg)

	dup := *user
	dup.ID = uuid.New()
	dup.Username = "other-" + dup.ID.String()[:8]
	err := pg.CreateUser(ctx, &dup)
	assert.True(t, IsDuplicate(err, ConstraintUsersEmail))

	hash := "digest-" + user.ID.String()
	require.NoError(t, pg.SetRefreshTokenHash(ctx, user.ID, &hash))

	got, err := pg.GetUserByRefreshTokenHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	cleared, err := pg.ClearRefreshTokenHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, cleared)

	_, err = pg.GetUserByRefreshTokenHash(ctx, hash)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordsCascadeIntegration(t *testing.T) {
	pg := openTestPostgres(t)
	ctx := context.Background()
	user := newTestUser(t, pg)

	for _, amount := range []float64{10, 15.5} {
		require.NoError(t, pg.InsertExpense(ctx, &model.Expense{
			ID: uuid.New(), UserID: user.ID, Title: "t", Amount: amount, Category: "food", Date: time.Now(),
		}))
	}
	require.NoError(t, pg.InsertIncome(ctx, &model.Income{
		ID: uuid.New(), UserID: user.ID, Title: "salary", Amount: 100, Category: "job", Date: time.Now(),
	}))

	total, err := pg.SumExpenses(ctx, user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.5, total, 0.001)

	n, err := pg.DeleteExpensesByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = pg.DeleteIncomesByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRevocationListIntegration(t *testing.T) {
	pg := openTestPostgres(t)
	ctx := context.Background()

	list := NewRevocationList(pg, time.Hour)
	hash := "revoked-" + uuid.NewString()

	revoked, err := list.IsRevoked(ctx, hash)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, hash))
	require.NoError(t, list.Revoke(ctx, hash))

	revoked, err = list.IsRevoked(ctx, hash)
	require.NoError(t, err)
	assert.True(t, revoked)

	expired := NewRevocationList(pg, -time.Second)
	stale := "stale-" + uuid.NewString()
	require.NoError(t, expired.Revoke(ctx, stale))

	revoked, err = list.IsRevoked(ctx, stale)
	require.NoError(t, err)
	assert.False(t, revoked)
}
