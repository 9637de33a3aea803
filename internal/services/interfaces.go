package services

import (
	"context"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/serializer"
)

// RequestService defines the interface for request business logic operations
type RequestService interface {
	// CreateRequest stores a request owned by userID and returns its serialized form
	CreateRequest(ctx context.Context, userID string, input *models.CreateRequestInput) (serializer.Output, error)

	// GetRequest returns one request with its extension
	GetRequest(ctx context.Context, id string) (serializer.Output, error)

	// ListRequests returns a page of requests ordered by due date
	ListRequests(ctx context.Context, limit, offset int) (*RequestList, error)

	// ListUserRequests returns a page of the requests owned by userID
	ListUserRequests(ctx context.Context, userID string, limit, offset int) (*RequestList, error)

	// UpdateRequest applies patch on behalf of userID, who must own the request
	UpdateRequest(ctx context.Context, userID, id string, patch *models.RequestPatch) (serializer.Output, error)

	// DeleteRequest deletes the request on behalf of userID, who must own it
	DeleteRequest(ctx context.Context, userID, id string) error
}

// FavoriteService defines the interface for favorite business logic operations
type FavoriteService interface {
	// CreateFavorite marks an existing request as a favorite of userID
	CreateFavorite(ctx context.Context, userID string, input *models.CreateFavoriteInput) (*models.Favorite, error)

	// DeleteFavorite removes a favorite owned by userID
	DeleteFavorite(ctx context.Context, userID, favoriteID string) error

	// ListFavorites returns the favorites of userID, newest first
	ListFavorites(ctx context.Context, userID string, limit, offset int) (*FavoriteList, error)
}

// RequestList is a page of serialized requests
type RequestList struct {
	Requests   []serializer.Output `json:"requests"`
	Pagination models.Pagination   `json:"pagination"`
}

// FavoriteList is a page of favorites
type FavoriteList struct {
	Favorites  []*models.Favorite `json:"favorites"`
	Pagination models.Pagination  `json:"pagination"`
}
