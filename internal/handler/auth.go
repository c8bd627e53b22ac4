package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/expense-tracker/backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

const (
	registerPhotoField = "profilePic"
	updatePhotoField   = "photo"
)

type AuthHandler struct {
	svc            *service.AuthService
	logger         *zap.Logger
	uploadMaxBytes int64
	proxies        proxyList
}

func NewAuthHandler(svc *service.AuthService, logger *zap.Logger, uploadMaxBytes int64, proxies proxyList) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger, uploadMaxBytes: uploadMaxBytes, proxies: proxies}
}

// Register godoc
// @Summary Register a new user
// @Description Accepts JSON or multipart form data with an optional profilePic image.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body model.RegisterRequest true "Username, email and password"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			h.abortTooLarge(c)
			return
		}
		abortJSON(c, http.StatusBadRequest, "all fields are required")
		return
	}

	photo, file, ok := h.readPhoto(c, registerPhotoField)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	session, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Photo:    photo,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusCreated, h.authResponse(c, session))
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, h.authResponse(c, session))
}

// Refresh godoc
// @Summary Refresh access token
// @Description Uses the refreshToken cookie. The refresh token is not rotated.
// @Tags auth
// @Produce json
// @Success 200 {object} model.RefreshResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(h.svc.CookieConfig().Name)
	accessToken, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, model.RefreshResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout
// @Description Ends the refresh session, revokes the presented access token and clears the cookie.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(h.svc.CookieConfig().Name)
	if err := h.svc.Logout(c.Request.Context(), refreshToken, GetAccessToken(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "logged out successfully"})
}

// Profile godoc
// @Summary Get current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.ProfileResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, model.ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Photo:     h.photoURL(c, user.Photo),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// UpdateProfile godoc
// @Summary Update current user profile
// @Description Accepts JSON or multipart form data with an optional photo image. Empty fields are left unchanged.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdateProfileRequest false "Fields to change"
// @Success 200 {object} model.ProfileUpdateResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			h.abortTooLarge(c)
			return
		}
		abortJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	photo, file, ok := h.readPhoto(c, updatePhotoField)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), GetAuthUser(c).ID, service.UpdateProfileInput{
		Username: req.Username,
		Password: req.Password,
		Photo:    photo,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, model.ProfileUpdateResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Photo:    h.photoURL(c, user.Photo),
		Message:  "profile updated successfully",
	})
}

// DeleteAccount godoc
// @Summary Delete current user and all of their records
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), GetAuthUser(c).ID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "account deleted successfully"})
}

// readPhoto returns the sniffed image in field, or nil when the request is
// not multipart or carries no file. ok is false once a response was written.
func (h *AuthHandler) readPhoto(c *gin.Context, field string) (*service.Upload, multipart.File, bool) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil, true
	}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, true
		}
		if isBodyTooLarge(err) {
			h.abortTooLarge(c)
			return nil, nil, false
		}
		abortJSON(c, http.StatusBadRequest, "invalid upload")
		return nil, nil, false
	}
	if h.uploadMaxBytes > 0 && header.Size > h.uploadMaxBytes {
		h.abortTooLarge(c)
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, h.logger, err)
		return nil, nil, false
	}

	contentType, ext, err := storage.DetectImage(file)
	if err != nil {
		file.Close()
		if errors.Is(err, storage.ErrNotImage) {
			abortJSON(c, http.StatusBadRequest, storage.ErrNotImage.Error())
			return nil, nil, false
		}
		writeError(c, h.logger, err)
		return nil, nil, false
	}

	return &service.Upload{ContentType: contentType, Ext: ext, Body: file}, file, true
}

func (h *AuthHandler) abortTooLarge(c *gin.Context) {
	abortJSON(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.uploadMaxBytes))
}

// isBodyTooLarge reports whether err came from the LimitBody reader. The
// multipart parser does not always wrap the reader's error.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, token, cfg.MaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) authResponse(c *gin.Context, session *service.Session) model.AuthResponse {
	return model.AuthResponse{
		ID:          session.User.ID,
		Username:    session.User.Username,
		Email:       session.User.Email,
		Photo:       h.photoURL(c, session.User.Photo),
		AccessToken: session.AccessToken,
	}
}

// photoURL turns a locally served upload path into an absolute URL. Object
// storage references are already absolute. X-Forwarded-Proto only counts
// when the peer is a configured proxy.
func (h *AuthHandler) photoURL(c *gin.Context, ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	if !strings.HasPrefix(*ref, "/") {
		return ref
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if h.proxies.contains(c.RemoteIP()) {
		switch proto := strings.ToLower(c.GetHeader("X-Forwarded-Proto")); proto {
		case "http", "https":
			scheme = proto
		}
	}
	url := scheme + "://" + c.Request.Host + *ref
	return &url
}
