package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_api/api"
	"sales_api/internal/auth"
	"sales_api/internal/config"
	"sales_api/internal/database"
	"sales_api/internal/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading configuration: %v", err))
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer stores.Close()

	tokens := auth.NewTokenManager(cfg.JWT.Issuer, cfg.JWT.Audience, []byte(cfg.JWT.Key), cfg.JWT.TTL)
	authService := auth.NewService(stores.Users, tokens, logger)
	admin := auth.AdminAccount{Username: cfg.Admin.Username, Email: cfg.Admin.Email, Password: cfg.Admin.Password}
	if err := authService.SeedAdmin(ctx, admin); err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	deps := api.Dependencies{
		SalesService: sales.NewService(stores.Sales, logger),
		AuthService:  authService,
		Logger:       logger,
	}
	if cfg.RateLimit.RPS > 0 {
		deps.RateLimiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		deps.RateLimiter.StartCleanup(ctx, time.Minute, 10*time.Minute)
	}
	api.InitRoutes(r, deps)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("error trying to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	return logger
}
