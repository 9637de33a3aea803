package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

const favoriteEntity = "favorite"

// favoriteService implements the FavoriteService interface
type favoriteService struct {
	favoriteRepo repositories.FavoriteRepository
	requestRepo  repositories.RequestRepository
	txManager    repositories.TransactionManager
	query        repositories.QueryConfig
	logger       *logrus.Logger
}

// NewFavoriteService creates a new favorite service instance
func NewFavoriteService(favoriteRepo repositories.FavoriteRepository, requestRepo repositories.RequestRepository, txManager repositories.TransactionManager, query repositories.QueryConfig, logger *logrus.Logger) FavoriteService {
	if logger == nil {
		logger = logrus.New()
	}
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		requestRepo:  requestRepo,
		txManager:    txManager,
		query:        query,
		logger:       logger,
	}
}

// CreateFavorite favorites an existing request
func (s *favoriteService) CreateFavorite(ctx context.Context, userID string, input *models.CreateFavoriteInput) (*models.Favorite, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(favoriteEntity, "", fmt.Errorf("user ID is required"))
	}
	if input == nil {
		return nil, repositories.ValidationError(favoriteEntity, "", fmt.Errorf("request body is required"))
	}
	if err := models.ValidateStruct(input); err != nil {
		return nil, repositories.ValidationError(favoriteEntity, "", err)
	}

	favorite := models.NewFavorite(userID, input.RequestID)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.requestRepo.Exists(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if !exists {
			return repositories.NotFoundError(requestEntity, input.RequestID)
		}
		return s.favoriteRepo.Create(ctx, favorite)
	})
	if err != nil {
		return nil, err
	}

	return favorite, nil
}

// DeleteFavorite removes a favorite owned by userID
func (s *favoriteService) DeleteFavorite(ctx context.Context, userID, favoriteID string) error {
	if !models.IsValidID(favoriteID) {
		return repositories.ValidationError(favoriteEntity, favoriteID, fmt.Errorf("invalid favorite ID format: %q", favoriteID))
	}

	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		favorite, err := s.favoriteRepo.GetByID(ctx, favoriteID)
		if err != nil {
			return err
		}
		if favorite == nil {
			return repositories.NotFoundError(favoriteEntity, favoriteID)
		}
		if !favorite.IsOwnedBy(userID) {
			return ForbiddenError("Not authorized to delete this favorite")
		}

		deleted, err := s.favoriteRepo.Delete(ctx, favoriteID)
		if err != nil {
			return err
		}
		if !deleted {
			return repositories.NotFoundError(favoriteEntity, favoriteID)
		}
		return nil
	})
}

// ListFavorites lists the favorites of userID
func (s *favoriteService) ListFavorites(ctx context.Context, userID string, limit, offset int) (*FavoriteList, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(favoriteEntity, "", fmt.Errorf("user ID is required"))
	}
	page, err := s.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	favorites, err := s.favoriteRepo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	return &FavoriteList{
		Favorites: favorites,
		Pagination: models.Pagination{
			Limit:  page.Limit,
			Offset: page.Offset,
			Count:  len(favorites),
		},
	}, nil
}
