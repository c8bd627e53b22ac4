package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/expense-tracker/backend/internal/logger"
	"github.com/expense-tracker/backend/internal/metrics"
	"github.com/expense-tracker/backend/internal/model"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authUserKey    = "auth_user"
	accessTokenKey = "access_token"
	requestIDKey   = "request_id"

	requestIDHeader = "X-Request-ID"
)

// AuthMiddleware is the access guard for protected routes. It attaches the
// caller's identity and the raw access token to the context.
func AuthMiddleware(authService *service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, log, err)
			return
		}

		c.Set(authUserKey, user)
		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// bearerToken accepts the scheme in any letter case.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func GetAccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// uploadBodySlack covers the multipart framing and text fields sent
// alongside a photo.
const uploadBodySlack = 64 << 10

// LimitBody caps the request body so an oversized upload is cut off while it
// is being read instead of after it was spooled to disk.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+uploadBodySlack)
		}
		c.Next()
	}
}

// RequestLogger tags every request with an X-Request-ID, reusing the
// client's when it sent one, and logs the outcome.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		reqLog := logger.WithRequestID(log, requestID)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			reqLog.Error("Request completed", fields...)
			return
		}
		reqLog.Info("Request completed", fields...)
	}
}

// Metrics records request latency by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
