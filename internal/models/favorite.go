package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Favorite marks a request as saved by a user
type Favorite struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	RequestID string    `json:"request_id" db:"request_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateFavoriteInput is the payload for favoriting a request
type CreateFavoriteInput struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
}

// NewFavorite creates a favorite with a generated ID
func NewFavorite(userID, requestID string) *Favorite {
	return &Favorite{
		ID:        uuid.New().String(),
		UserID:    userID,
		RequestID: requestID,
		CreatedAt: Now(),
	}
}

// Validate validates the favorite data
func (f *Favorite) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("favorite ID is required")
	}
	if f.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if !IsValidID(f.RequestID) {
		return fmt.Errorf("request_id must be a valid UUID")
	}
	return nil
}

// IsOwnedBy reports whether userID owns the favorite
func (f *Favorite) IsOwnedBy(userID string) bool {
	return userID != "" && f.UserID == userID
}
