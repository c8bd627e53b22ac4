package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/expense-tracker/backend/internal/cache"
	"github.com/expense-tracker/backend/internal/config"
	"github.com/expense-tracker/backend/internal/db"
	"github.com/expense-tracker/backend/internal/handler"
	"github.com/expense-tracker/backend/internal/logger"
	"github.com/expense-tracker/backend/internal/service"
	"github.com/expense-tracker/backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// @title Expense Tracker API
// @version 1.0
// @description Personal finance backend with cookie based refresh sessions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Environment)
	defer func() { _ = log.Sync() }()

	if cfg.Log.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	server, cleanup, err := setup(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", zap.Error(err))
	}
	defer cleanup()

	runServer(ctx, server, log)
}

func setup(ctx context.Context, cfg config.Config, log *zap.Logger) (*http.Server, func(), error) {
	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	pg := &db.Postgres{Pool: pool}
	closers := []func(){pool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := pg.Migrate(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info("Database migrated")

	revocations, closeRevocations, err := newRevocationList(ctx, cfg, pg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeRevocations)

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tokens, err := service.NewTokenIssuer(cfg.Auth)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	authService, err := service.NewAuthService(
		pg, pg, revocations, tokens, files,
		logger.WithComponent(log, "auth"),
		cfg.Auth,
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	uploadMaxBytes, err := strconv.ParseInt(cfg.Server.UploadMaxBytes, 10, 64)
	if err != nil || uploadMaxBytes <= 0 {
		cleanup()
		return nil, nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES %q", cfg.Server.UploadMaxBytes)
	}

	routerCfg := handler.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadMaxBytes: uploadMaxBytes,
		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if local, ok := files.(*storage.LocalStore); ok {
		routerCfg.UploadDir = local.Dir()
	}

	router, err := handler.NewRouter(handler.Services{
		Auth:    authService,
		Expense: service.NewExpenseService(pg),
		Income:  service.NewIncomeService(pg),
	}, log, routerCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, cleanup, nil
}

// newRevocationList picks Redis when configured and falls back to the
// revoked_tokens table.
func newRevocationList(ctx context.Context, cfg config.Config, pg *db.Postgres, log *zap.Logger) (service.RevocationList, func(), error) {
	ttl, err := service.RevocationTTL(cfg.Auth)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Auth.RevocationBackend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using Redis revocation list", zap.String("addr", cfg.Redis.Addr))
		return cache.NewRevocationList(client, logger.WithComponent(log, "revocations"), ttl), func() { _ = client.Close() }, nil
	case "postgres":
		log.Info("Using Postgres revocation list")
		return db.NewRevocationList(pg, ttl), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown REVOCATION_BACKEND %q", cfg.Auth.RevocationBackend)
	}
}

func runServer(ctx context.Context, server *http.Server, log *zap.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			return
		}
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited properly")
}
