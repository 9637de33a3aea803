package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

const (
	favoritesTable  = "favorites"
	favoriteEntity  = "favorite"
	favoriteColumns = `id, user_id, request_id, created_at`
)

// FavoriteRepository implements the FavoriteRepository interface over sqlx
type FavoriteRepository struct {
	*BaseRepository[models.Favorite]
	tm repositories.TransactionManager
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *sqlx.DB, tm repositories.TransactionManager, query repositories.QueryConfig, logger *logrus.Logger) *FavoriteRepository {
	return &FavoriteRepository{
		BaseRepository: NewBaseRepository[models.Favorite](db, favoritesTable, query, logger),
		tm:             tm,
	}
}

// Create stores a favorite. A second favorite of the same request by the
// same user violates the unique key and is reported as a duplicate.
func (r *FavoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	if favorite == nil {
		return repositories.ValidationError(favoriteEntity, "", fmt.Errorf("favorite cannot be nil"))
	}
	if err := favorite.Validate(); err != nil {
		return repositories.ValidationError(favoriteEntity, favorite.ID, err)
	}

	query := `INSERT INTO favorites (` + favoriteColumns + `) VALUES (:id, :user_id, :request_id, :created_at)`
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := r.executeNamed(ctx, "create", favorite.ID, query, favorite)
		return err
	})
	if err != nil {
		if repositories.IsDuplicate(err) {
			return repositories.DuplicateError(favoriteEntity, "request_id", favorite.RequestID, err)
		}
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"favorite_id": favorite.ID,
		"request_id":  favorite.RequestID,
		"user_id":     favorite.UserID,
	}).Info("Favorite created")
	return nil
}

// GetByID returns the favorite, or nil if absent
func (r *FavoriteRepository) GetByID(ctx context.Context, id string) (*models.Favorite, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE id = ?`

	var favorite models.Favorite
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		return r.get(ctx, "get_by_id", id, &favorite, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	favorite.CreatedAt = favorite.CreatedAt.UTC()
	return &favorite, nil
}

// Delete removes a favorite by ID
func (r *FavoriteRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.validateID(id); err != nil {
		return false, err
	}

	var deleted bool
	err := r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := r.executeExec(ctx, "delete", id, "DELETE FROM favorites WHERE id = ?", id)
		if err != nil {
			return err
		}
		deleted, err = r.rowsAffected(result, "delete", id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		r.logger.WithField("favorite_id", id).Info("Favorite deleted")
	}
	return deleted, nil
}

// ListByUser returns the favorites of userID, newest first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repositories.ValidationError(favoriteEntity, "", fmt.Errorf("user ID is required"))
	}
	page, err := r.query.ResolvePage(limit, offset)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + favoriteColumns + ` FROM favorites WHERE user_id = ?
		ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`

	var favorites []*models.Favorite
	err = r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		return r.selectRows(ctx, "list_by_user", &favorites, query, userID, page.Limit, page.Offset)
	})
	if err != nil {
		return nil, err
	}

	for _, favorite := range favorites {
		favorite.CreatedAt = favorite.CreatedAt.UTC()
	}
	if favorites == nil {
		favorites = []*models.Favorite{}
	}
	return favorites, nil
}
