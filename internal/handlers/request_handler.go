package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/serializer"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/services"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

// RequestHandler handles request-related HTTP calls
type RequestHandler struct {
	requestService services.RequestService
	logger         *logrus.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService services.RequestService, logger *logrus.Logger) *RequestHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// RequestMutationResponse is returned by create and update
type RequestMutationResponse struct {
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Request   serializer.Output `json:"request"`
}

// RequestResponse wraps a single request
type RequestResponse struct {
	Request serializer.Output `json:"request"`
}

// @Summary Create a request
// @Description Create a buy_and_deliver, pickup_and_deliver or online_service request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateRequestInput true "Request data"
// @Success 201 {object} RequestMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /requests [post]
func (h *RequestHandler) HandleCreate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	var input models.CreateRequestInput
	if err := decodeBody(req, "request", &input); err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	out, err := h.requestService.CreateRequest(ctx, req.UserID, &input)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusCreated, RequestMutationResponse{
		Message:   "Request created successfully",
		RequestID: out.RequestID(),
		Request:   out,
	})
}

// @Summary Get a request
// @Description Get a request with its type-specific fields
// @Tags requests
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} RequestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /requests/{request_id} [get]
func (h *RequestHandler) HandleGet(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	out, err := h.requestService.GetRequest(ctx, req.PathParam("request_id"))
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, RequestResponse{Request: out})
}

// @Summary List requests
// @Description List requests ordered by due date, requests without one last
// @Tags requests
// @Produce json
// @Param limit query int false "Page size" default(30)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {object} services.RequestList
// @Failure 400 {object} ErrorResponse
// @Router /requests [get]
func (h *RequestHandler) HandleList(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	limit, offset, err := pagination(req)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	list, err := h.requestService.ListRequests(ctx, limit, offset)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, list)
}

// @Summary List a user's requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Owner ID"
// @Param limit query int false "Page size" default(30)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {object} services.RequestList
// @Failure 401 {object} ErrorResponse
// @Router /users/{user_id}/requests [get]
func (h *RequestHandler) HandleListByUser(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	limit, offset, err := pagination(req)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	list, err := h.requestService.ListUserRequests(ctx, req.PathParam("user_id"), limit, offset)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, list)
}

// @Summary Update a request
// @Description Partially update a request owned by the caller. Only title,
// @Description description, due_date and the request type's own coordinates are writable.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request_id path string true "Request ID"
// @Success 200 {object} RequestMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /requests/{request_id} [patch]
func (h *RequestHandler) HandleUpdate(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	id := req.PathParam("request_id")
	patch, err := models.ParseRequestPatch(req.Body)
	if err != nil {
		return errorResponse(h.logger, req, repositories.ValidationError("request", id, err)), nil
	}

	out, err := h.requestService.UpdateRequest(ctx, req.UserID, id, patch)
	if err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return jsonResponse(http.StatusOK, RequestMutationResponse{
		Message:   "Request updated successfully",
		RequestID: out.RequestID(),
		Request:   out,
	})
}

// @Summary Delete a request
// @Tags requests
// @Security BearerAuth
// @Param request_id path string true "Request ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /requests/{request_id} [delete]
func (h *RequestHandler) HandleDelete(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if req.UserID == "" {
		return unauthorizedResponse(), nil
	}

	if err := h.requestService.DeleteRequest(ctx, req.UserID, req.PathParam("request_id")); err != nil {
		return errorResponse(h.logger, req, err), nil
	}

	return noContentResponse(), nil
}
