package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/database"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories/sqlstore"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *logrus.Logger
	RequestService  services.RequestService
	FavoriteService services.FavoriteService

	// Internal dependencies
	db       *database.Manager
	repos    *sqlstore.SQLRepositoryManager
	services *services.ServiceContainer
}

// NewContainer connects to the database, migrating it when enabled, and
// wires repositories and services on top of the pool
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = config.NewLogger(cfg.Log)
	}

	if err := cfg.Database.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare database directory: %w", err)
	}

	repoConfig := cfg.Database.ToRepositoryConfig()
	dbManager := database.NewManager(repoConfig, logger)
	if err := dbManager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repos := sqlstore.NewRepositoryManager(dbManager.GetDB(), repoConfig, logger)

	serviceContainer, err := services.NewServiceContainer(repos.Container(), &services.ServiceConfig{
		Query:  repoConfig.Query,
		Logger: logger,
	})
	if err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	return &Container{
		Config:          cfg,
		Logger:          logger,
		RequestService:  serviceContainer.RequestService,
		FavoriteService: serviceContainer.FavoriteService,
		db:              dbManager,
		repos:           repos,
		services:        serviceContainer,
	}, nil
}

// HealthCheck pings the database through the repository layer
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.repos == nil {
		return fmt.Errorf("container is closed")
	}
	return c.repos.Health(ctx)
}

// Close releases the connection pool
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.db = nil
	c.repos = nil
	return nil
}
