package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/services"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusForError maps the error taxonomy to an HTTP status. Validation is
// checked first: a rejected input may also carry an unknown-type cause.
func statusForError(err error) int {
	switch {
	case repositories.IsValidation(err):
		return http.StatusBadRequest
	case services.IsForbidden(err):
		return http.StatusForbidden
	case repositories.IsNotFound(err):
		return http.StatusNotFound
	case repositories.IsDuplicate(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errorTitles = map[int]string{
	http.StatusBadRequest:          "Validation failed",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not found",
	http.StatusConflict:            "Conflict",
	http.StatusInternalServerError: "Internal server error",
}

// errorResponse renders err with the status of its class. Internal failures
// are logged and replaced by a generic message.
func errorResponse(logger *logrus.Logger, req *lambda.Request, err error) *lambda.Response {
	status := statusForError(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"request_id": req.RequestID,
			"method":     req.Method,
			"path":       req.Path,
			"error":      err.Error(),
		}).Error("Request failed")
		message = "An internal error occurred"
	}

	return newErrorResponse(status, message)
}

func newErrorResponse(status int, message string) *lambda.Response {
	title, ok := errorTitles[status]
	if !ok {
		title = http.StatusText(status)
	}
	resp, err := jsonResponse(status, ErrorResponse{Error: title, Message: message})
	if err != nil {
		return &lambda.Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders(),
			Body:       []byte(`{"error":"Internal server error"}`),
		}
	}
	return resp
}

func unauthorizedResponse() *lambda.Response {
	return newErrorResponse(http.StatusUnauthorized, "Authentication is required")
}

func notFoundResponse() *lambda.Response {
	return newErrorResponse(http.StatusNotFound, "Route not found")
}
