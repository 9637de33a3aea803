package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/handlers"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/middleware"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := config.NewLogger(cfg.Log)

	// Middleware logs through the standard logger
	logrus.SetFormatter(logger.Formatter)
	logrus.SetLevel(logger.GetLevel())

	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			logger.Fatal("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = devSecret()
		logger.Warn("JWT_SECRET not set, using a random development secret")
	}

	ctx := context.Background()
	container, err := server.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authService := middleware.NewAuthService(&middleware.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})

	serverConfig := &handlers.ServerConfig{
		AuthService:     authService,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
		EnableSwagger:   !cfg.IsProduction(),
		EnableDevRoutes: cfg.Environment == "development",
	}

	router := gin.New()
	handlers.SetupMiddleware(router, serverConfig)
	handlers.SetupRoutes(router, &handlers.RouterConfig{
		RequestHandler:  handlers.NewRequestHandler(container.RequestService, logger),
		FavoriteHandler: handlers.NewFavoriteHandler(container.FavoriteService, logger),
		HealthHandler:   handlers.NewHealthHandler(container.HealthCheck, logger),
		Logger:          logger,
	}, serverConfig)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"driver":      cfg.Database.Driver,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func devSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "development-secret"
	}
	return hex.EncodeToString(buf)
}
