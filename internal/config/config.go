package config

import (
	"os"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port           string
	UploadMaxBytes string
	TrustedProxies []string
}

type LogConfig struct {
	Level       string
	Environment string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       string
}

type AuthConfig struct {
	JWTSecret         string
	JWTRefreshSecret  string
	JWTAccessTTL      string
	JWTRefreshTTL     string
	RevocationTTL     string
	RevocationBackend string
	CookieSecure      string
	CookieSameSite    string
	CookieDomain      string
}

type StorageConfig struct {
	Backend     string
	UploadDir   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() Config {
	redisAddr := os.Getenv("REDIS_ADDR")
	revocationBackend := "postgres"
	if redisAddr != "" {
		revocationBackend = "redis"
	}

	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "5000"),
			UploadMaxBytes: getenv("UPLOAD_MAX_BYTES", "5242880"),
			TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		},
		Log: LogConfig{
			Level:       getenv("LOG_LEVEL", "info"),
			Environment: getenv("APP_ENV", "development"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenv("REDIS_DB", "0"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			JWTRefreshSecret:  os.Getenv("JWT_REFRESH_SECRET"),
			JWTAccessTTL:      getenv("JWT_ACCESS_TTL", "15m"),
			JWTRefreshTTL:     getenv("JWT_REFRESH_TTL", "168h"),
			RevocationTTL:     getenv("REVOCATION_TTL", "1h"),
			RevocationBackend: getenv("REVOCATION_BACKEND", revocationBackend),
			CookieSecure:      os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite:    getenv("AUTH_COOKIE_SAMESITE", "strict"),
			CookieDomain:      os.Getenv("AUTH_COOKIE_DOMAIN"),
		},
		Storage: StorageConfig{
			Backend:     getenv("STORAGE_BACKEND", "local"),
			UploadDir:   getenv("UPLOAD_DIR", "uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    getenv("S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
			S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
