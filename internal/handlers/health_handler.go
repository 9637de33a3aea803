package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

// HealthCheckFunc reports whether the backing store is reachable
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler serves the health endpoint
type HealthHandler struct {
	check  HealthCheckFunc
	logger *logrus.Logger
}

// NewHealthHandler creates a health handler; a nil check always reports healthy
func NewHealthHandler(check HealthCheckFunc, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthHandler{check: check, logger: logger}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HandleHealth(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	if h.check != nil {
		if err := h.check(ctx); err != nil {
			h.logger.WithError(err).Warn("Health check failed")
			return jsonResponse(http.StatusServiceUnavailable, HealthResponse{
				Status:  "unhealthy",
				Message: "Database is unavailable",
			})
		}
	}

	return jsonResponse(http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "Service is healthy",
	})
}
