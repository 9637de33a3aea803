package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/services"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

// FavoriteHandler handles favorite-related HTTP calls
type FavoriteHandler struct {
	favoriteService services.FavoriteService
	logger          *logrus.Logger
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService services.FavoriteService, logger *logrus.Logger) *FavoriteHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &FavoriteHandler{
		favoriteService: favoriteService,
		logger:          logger,
	}
}

// FavoriteCreatedResponse is returned when a favorite is created
type FavoriteCreatedResponse struct {
	FavoriteID string `json:"favorite_id"`
}

// @Summary Favorite a request
// @Tags favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param favorite body models.CreateFavoriteInput true "Request to favorite"
// @Success 200 {object} FavoriteCreatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /favorites [post]
func (h *FavoriteHandler) HandleCreate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	var input models.CreateFavoriteInput
	if err := decodeBody(req, "favorite", &input); err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	favorite, err := h.favoriteService.CreateFavorite(ctx, req.UserID, &input)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, FavoriteCreatedResponse{FavoriteID: favorite.ID})
}

// @Summary Remove a favorite
// @Tags favorites
// @Security BearerAuth
// @Param favorite_id path string true "Favorite ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /favorites/{favorite_id} [delete]
func (h *FavoriteHandler) HandleDelete(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	if err := h.favoriteService.DeleteFavorite(ctx, req.UserID, req.PathParam("favorite_id")); err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return noContentResponse(), nil
}

// @Summary List the caller's favorites
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(30)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {object} services.FavoriteList
// @Router /favorites [get]
func (h *FavoriteHandler) HandleList(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	limit, offset, err := pagination(req)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	list, err := h.favoriteService.ListFavorites(ctx, req.UserID, limit, offset)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, list)
}
