package model

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `form:"username" json:"username" binding:"required,notblank"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type AuthResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Photo       *string   `json:"photo,omitempty"`
	AccessToken string    `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Photo     *string   `json:"photo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProfileUpdateResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Photo    *string   `json:"photo"`
	Message  string    `json:"message"`
}

// AuthUser is the identity the access guard attaches to a request.
// It never carries credentials.
type AuthUser struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Photo     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is the stored credential record. RefreshTokenHash holds the digest of
// the single refresh token the user may currently present.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	PasswordHash     string
	RefreshTokenHash *string
	Photo            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) Identity() *AuthUser {
	return &AuthUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
