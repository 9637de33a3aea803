package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	RequestService  RequestService
	FavoriteService FavoriteService
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	Query  repositories.QueryConfig
	Logger *logrus.Logger
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(repos *repositories.RepositoryContainer, config *ServiceConfig) (*ServiceContainer, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository container cannot be nil")
	}
	if repos.RequestRepo == nil || repos.FavoriteRepo == nil || repos.TxManager == nil {
		return nil, fmt.Errorf("repository container is incomplete")
	}

	if config == nil {
		config = &ServiceConfig{
			Query: repositories.DefaultConfig().Query,
		}
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	requestService := NewRequestService(repos.RequestRepo, repos.TxManager, config.Query, config.Logger)
	favoriteService := NewFavoriteService(repos.FavoriteRepo, repos.RequestRepo, repos.TxManager, config.Query, config.Logger)

	return &ServiceContainer{
		RequestService:  requestService,
		FavoriteService: favoriteService,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.RequestService == nil {
		return fmt.Errorf("request service is nil")
	}
	if sc.FavoriteService == nil {
		return fmt.Errorf("favorite service is nil")
	}
	return nil
}
