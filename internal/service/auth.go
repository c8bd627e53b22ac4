package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/expense-tracker/backend/internal/config"
	"github.com/expense-tracker/backend/internal/db"
	"github.com/expense-tracker/backend/internal/metrics"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const refreshCookieName = "refreshToken"

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

type userRepo interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	SetRefreshTokenHash(ctx context.Context, userID uuid.UUID, tokenHash *string) error
	ClearRefreshTokenHash(ctx context.Context, tokenHash string) (bool, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// recordPurger removes the finance records owned by a user.
type recordPurger interface {
	DeleteExpensesByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteIncomesByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// RevocationList remembers access tokens that were logged out before they
// expired. Implementations expire entries on their own.
type RevocationList interface {
	Revoke(ctx context.Context, tokenHash string) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// Upload is an image that has already been sniffed by the caller.
type Upload struct {
	ContentType string
	Ext         string
	Body        io.Reader
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Photo    *Upload
}

type UpdateProfileInput struct {
	Username string
	Password string
	Photo    *Upload
}

// Session is the outcome of a successful register or login.
type Session struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	repo      userRepo
	records   recordPurger
	revoked   RevocationList
	tokens    *TokenIssuer
	files     storage.FileStore
	logger    *zap.Logger
	cookieCfg CookieConfig
}

func NewAuthService(
	repo userRepo,
	records recordPurger,
	revoked RevocationList,
	tokens *TokenIssuer,
	files storage.FileStore,
	logger *zap.Logger,
	cfg config.AuthConfig,
) (*AuthService, error) {
	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	return &AuthService{
		repo:    repo,
		records: records,
		revoked: revoked,
		tokens:  tokens,
		files:   files,
		logger:  logger,
		cookieCfg: CookieConfig{
			Name:     refreshCookieName,
			Path:     "/",
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(tokens.RefreshTTL().Seconds()),
		},
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (session *Session, err error) {
	defer func() { metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, newError(ErrInvalidInput, "all fields are required")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "user already exists")
	} else if !db.IsNoRows(err) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if in.Photo != nil {
		ref, err := s.savePhoto(ctx, in.Photo)
		if err != nil {
			return nil, err
		}
		user.Photo = &ref
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.discardPhoto(ctx, user.Photo)
		return nil, userWriteError(err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issueSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (session *Session, err error) {
	defer func() { metrics.LoginAttemptsTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, newError(ErrInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, newError(ErrInvalidCredentials, "invalid credentials")
	}

	return s.issueSession(ctx, user)
}

// Refresh mints a new access token for the holder of refreshToken. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	defer func() { metrics.TokenRefreshTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	if strings.TrimSpace(refreshToken) == "" {
		return "", newError(ErrUnauthorized, "no refresh token")
	}

	user, err := s.repo.GetUserByRefreshTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if db.IsNoRows(err) {
			return "", newError(ErrForbidden, "invalid refresh token")
		}
		return "", err
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil || userID != user.ID {
		return "", newError(ErrForbidden, "invalid refresh token")
	}

	return s.tokens.IssueAccessToken(user.ID)
}

// Logout ends the session holding refreshToken, if any, and revokes
// accessToken when one was presented.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return newError(ErrInvalidInput, "no refresh token found")
	}

	// Revoke first: if it fails the session is still intact and the client
	// can retry with the same cookie.
	if accessToken != "" {
		if err := s.revoked.Revoke(ctx, hashToken(accessToken)); err != nil {
			return err
		}
	}

	if _, err := s.repo.ClearRefreshTokenHash(ctx, hashToken(refreshToken)); err != nil {
		return err
	}

	metrics.LogoutsTotal.Inc()
	return nil
}

// Authenticate resolves the identity behind an access token. Checks run in
// order: presence, revocation, signature and expiry, then the user record.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	if accessToken == "" {
		return nil, newError(ErrUnauthorized, "no token, authorization denied")
	}

	revoked, err := s.revoked.IsRevoked(ctx, hashToken(accessToken))
	if err != nil {
		return nil, err
	}
	if revoked {
		metrics.RevokedTokenRejectionsTotal.Inc()
		return nil, newError(ErrUnauthorized, "token expired or invalid")
	}

	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, newError(ErrTokenExpired, "token expired, please log in again")
		}
		return nil, newError(ErrUnauthorized, "not authorized, token failed")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(in.Username); username != "" && username != user.Username {
		existing, err := s.repo.GetUserByUsername(ctx, username)
		if err == nil && existing.ID != user.ID {
			return nil, newError(ErrConflict, "username already taken")
		}
		if err != nil && !db.IsNoRows(err) {
			return nil, err
		}
		user.Username = username
	}

	if strings.TrimSpace(in.Password) != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, passwordError(err)
		}
		user.PasswordHash = hash
	}

	oldPhoto := user.Photo
	if in.Photo != nil {
		ref, err := s.savePhoto(ctx, in.Photo)
		if err != nil {
			return nil, err
		}
		user.Photo = &ref
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		if in.Photo != nil {
			s.discardPhoto(ctx, user.Photo)
		}
		return nil, userWriteError(err)
	}

	if in.Photo != nil {
		s.discardPhoto(ctx, oldPhoto)
	}
	return user, nil
}

// DeleteAccount removes the user's expenses and incomes, then the user. A
// failure after any records were removed is reported as ErrPartialDeletion.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	expenses, err := s.records.DeleteExpensesByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expenses: %w", err)
	}

	incomes, err := s.records.DeleteIncomesByUser(ctx, userID)
	if err != nil {
		return s.partialDeletion(userID, "incomes", err)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return s.partialDeletion(userID, "user", err)
	}

	s.discardPhoto(ctx, user.Photo)
	s.logger.Info("Account deleted",
		zap.String("user_id", userID.String()),
		zap.Int64("expenses", expenses),
		zap.Int64("incomes", incomes),
	)
	return nil
}

func (s *AuthService) partialDeletion(userID uuid.UUID, step string, err error) error {
	s.logger.Error("Account deletion stopped after records were removed",
		zap.String("user_id", userID.String()),
		zap.String("step", step),
		zap.Error(err),
	)
	return fmt.Errorf("%w: deleting %s: %v", ErrPartialDeletion, step, err)
}

// issueSession mints a token pair and stores the refresh token digest on the
// user, replacing whatever session the user had before.
func (s *AuthService) issueSession(ctx context.Context, user *model.User) (*Session, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	hash := hashToken(refreshToken)
	if err := s.repo.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, err
	}
	user.RefreshTokenHash = &hash

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) loadUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) savePhoto(ctx context.Context, photo *Upload) (string, error) {
	name := uuid.NewString() + photo.Ext
	ref, err := s.files.Save(ctx, name, photo.ContentType, photo.Body)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return ref, nil
}

func (s *AuthService) discardPhoto(ctx context.Context, ref *string) {
	if ref == nil || *ref == "" {
		return
	}
	if err := s.files.Delete(ctx, *ref); err != nil {
		s.logger.Warn("Failed to remove photo", zap.String("photo", *ref), zap.Error(err))
	}
}

func userWriteError(err error) error {
	switch {
	case db.IsDuplicate(err, db.ConstraintUsersEmail):
		return newError(ErrConflict, "user already exists")
	case db.IsDuplicate(err, db.ConstraintUsersUsername):
		return newError(ErrConflict, "username already taken")
	case db.IsNoRows(err):
		return newError(ErrNotFound, "user not found")
	default:
		return err
	}
}

func passwordError(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return newError(ErrInvalidInput, "password is too long")
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteStrictMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}

// RevocationTTL parses REVOCATION_TTL for whichever revocation backend is
// wired at startup. An entry must outlive the access token it blocks, so the
// TTL may not be shorter than JWT_ACCESS_TTL.
func RevocationTTL(cfg config.AuthConfig) (time.Duration, error) {
	ttl, err := parsePositiveDuration(cfg.RevocationTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid REVOCATION_TTL", ErrMisconfigured)
	}

	accessTTL, err := parsePositiveDuration(cfg.JWTAccessTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}
	if ttl < accessTTL {
		return 0, fmt.Errorf("%w: REVOCATION_TTL %s is shorter than JWT_ACCESS_TTL %s", ErrMisconfigured, ttl, accessTTL)
	}
	return ttl, nil
}
