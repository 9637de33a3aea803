package repositories

import (
	"context"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
)

// RequestRepository persists requests together with their type-specific extension.
// Lookups by ID report absence as a nil result rather than an error.
type RequestRepository interface {
	// Insert writes the base row and the matching extension row in one transaction
	Insert(ctx context.Context, userID string, input *models.CreateRequestInput) (*models.Request, error)

	// GetByID returns the base row, or nil if no request has that ID
	GetByID(ctx context.Context, id string) (*models.Request, error)

	// List returns requests ordered by ascending due date
	List(ctx context.Context, limit, offset int) ([]*models.Request, error)

	// ListByUser returns the requests owned by userID ordered by ascending due date
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Request, error)

	// Update applies patch to the request, or returns nil if no request has that ID
	Update(ctx context.Context, id string, patch *models.RequestPatch) (*models.Request, error)

	// Delete removes the request and, by cascade, its extension
	Delete(ctx context.Context, id string) (bool, error)

	// Exists checks if a request with the given ID exists
	Exists(ctx context.Context, id string) (bool, error)

	// GetExtension loads the extension matching the request's tag
	GetExtension(ctx context.Context, req *models.Request) (models.Extension, error)

	// GetComplete returns the request joined with its extension, or nil if absent
	GetComplete(ctx context.Context, id string) (*models.CompleteRequest, error)

	// LoadExtensions joins extensions onto a batch of requests
	LoadExtensions(ctx context.Context, requests []*models.Request) ([]*models.CompleteRequest, error)
}

// FavoriteRepository persists user favorites
type FavoriteRepository interface {
	// Create stores a favorite; a second favorite for the same user and request is a duplicate
	Create(ctx context.Context, favorite *models.Favorite) error

	// GetByID returns the favorite, or nil if absent
	GetByID(ctx context.Context, id string) (*models.Favorite, error)

	// Delete removes a favorite by ID
	Delete(ctx context.Context, id string) (bool, error)

	// ListByUser returns the favorites of userID, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, error)
}

// RepositoryContainer holds all repository instances
type RepositoryContainer struct {
	RequestRepo  RequestRepository
	FavoriteRepo FavoriteRepository
	TxManager    TransactionManager
}
