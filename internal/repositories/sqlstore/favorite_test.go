package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

func TestFavoriteRepository_CreateAndGet(t *testing.T) {
	_, manager, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	request, err := manager.Requests().Insert(ctx, "owner", buyInput("Buy bread", nil))
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	repo := manager.Favorites()
	favorite := models.NewFavorite("fan", request.ID)
	if err := repo.Create(ctx, favorite); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, favorite.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("GetByID() returned nil")
	}
	if retrieved.UserID != "fan" || retrieved.RequestID != request.ID {
		t.Errorf("Unexpected favorite: %+v", retrieved)
	}
	if !retrieved.CreatedAt.Equal(favorite.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", retrieved.CreatedAt, favorite.CreatedAt)
	}

	missing, err := repo.GetByID(ctx, "5f1c7a52-8f7e-4c1a-9d51-1b8e0e6a9f10")
	if err != nil || missing != nil {
		t.Errorf("GetByID() of missing favorite = %+v, %v; want nil, nil", missing, err)
	}
}

func TestFavoriteRepository_Duplicate(t *testing.T) {
	_, manager, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	request, err := manager.Requests().Insert(ctx, "owner", buyInput("Buy bread", nil))
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	repo := manager.Favorites()
	if err := repo.Create(ctx, models.NewFavorite("fan", request.ID)); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	err = repo.Create(ctx, models.NewFavorite("fan", request.ID))
	if !repositories.IsDuplicate(err) {
		t.Errorf("Expected duplicate error, got %v", err)
	}

	// Another user may favorite the same request
	if err := repo.Create(ctx, models.NewFavorite("other-fan", request.ID)); err != nil {
		t.Errorf("Create() for another user failed: %v", err)
	}
}

func TestFavoriteRepository_UnknownRequest(t *testing.T) {
	_, manager, cleanup := setupTestStore(t)
	defer cleanup()

	err := manager.Favorites().Create(context.Background(), models.NewFavorite("fan", "5f1c7a52-8f7e-4c1a-9d51-1b8e0e6a9f10"))
	if !repositories.IsConstraint(err) {
		t.Errorf("Expected constraint error, got %v", err)
	}
	if repositories.IsDuplicate(err) {
		t.Error("A missing request is not a duplicate")
	}
}

func TestFavoriteRepository_ListAndDelete(t *testing.T) {
	db, manager, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	repo := manager.Favorites()

	var favorites []*models.Favorite
	for i := 0; i < 3; i++ {
		request, err := manager.Requests().Insert(ctx, "owner", buyInput("Buy bread", nil))
		if err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
		favorite := models.NewFavorite("fan", request.ID)
		favorite.CreatedAt = favorite.CreatedAt.Add(time.Duration(i) * time.Second)
		if err := repo.Create(ctx, favorite); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		favorites = append(favorites, favorite)
	}

	listed, err := repo.ListByUser(ctx, "fan", 0, 0)
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("ListByUser() returned %d, want 3", len(listed))
	}
	if listed[0].ID != favorites[2].ID {
		t.Errorf("ListByUser() should return newest first, got %s", listed[0].ID)
	}

	deleted, err := repo.Delete(ctx, favorites[0].ID)
	if err != nil || !deleted {
		t.Errorf("Delete() = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(ctx, favorites[0].ID)
	if err != nil || deleted {
		t.Errorf("second Delete() = %v, %v; want false, nil", deleted, err)
	}

	// Deleting the request removes its favorites
	if _, err := manager.Requests().Delete(ctx, favorites[1].RequestID); err != nil {
		t.Fatalf("Delete() request failed: %v", err)
	}
	if n := countRows(t, db, "favorites"); n != 1 {
		t.Errorf("Expected 1 favorite after cascade, found %d", n)
	}

	if _, err := repo.ListByUser(ctx, "", 0, 0); !repositories.IsValidation(err) {
		t.Errorf("ListByUser() without user: expected validation error, got %v", err)
	}
}

func TestRepositoryManager_Health(t *testing.T) {
	_, manager, cleanup := setupTestStore(t)
	defer cleanup()

	if err := manager.Health(context.Background()); err != nil {
		t.Errorf("Health() failed: %v", err)
	}

	container := manager.Container()
	if container.RequestRepo == nil || container.FavoriteRepo == nil || container.TxManager == nil {
		t.Error("Container() should expose every repository")
	}
}
