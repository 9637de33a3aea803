package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/middleware"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

// Handlers are written once against pkg/lambda's Request and Response.
// The Lambda router calls them directly, gin reaches them through GinHandler.

func defaultHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func jsonResponse(status int, payload interface{}) (*lambda.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return &lambda.Response{
		StatusCode: status,
		Headers:    defaultHeaders(),
		Body:       body,
	}, nil
}

func noContentResponse() *lambda.Response {
	return &lambda.Response{
		StatusCode: http.StatusNoContent,
		Headers:    map[string]string{},
	}
}

// decodeBody decodes a JSON request body into dst
func decodeBody(req *lambda.Request, entity string, dst interface{}) error {
	if len(strings.TrimSpace(string(req.Body))) == 0 {
		return repositories.ValidationError(entity, "", fmt.Errorf("request body is required"))
	}
	if err := json.Unmarshal(req.Body, dst); err != nil {
		return repositories.ValidationError(entity, "", fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// pagination reads limit and offset; absent values are left to the service defaults.
// An explicit limit must be positive.
func pagination(req *lambda.Request) (limit, offset int, err error) {
	if limit, err = intQuery(req, "limit"); err != nil {
		return 0, 0, err
	}
	if req.Query("limit") != "" && limit < 1 {
		return 0, 0, repositories.ValidationError("page", "", fmt.Errorf("limit must be a positive integer"))
	}
	if offset, err = intQuery(req, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intQuery(req *lambda.Request, name string) (int, error) {
	raw := req.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, repositories.ValidationError("page", "", fmt.Errorf("%s must be an integer", name))
	}
	return value, nil
}

// GinHandler adapts a transport-neutral handler to gin
func GinHandler(logger *logrus.Logger, h lambda.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := requestFromGin(c)
		if err != nil {
			writeGinResponse(c, newErrorResponse(http.StatusBadRequest, err.Error()))
			return
		}

		resp, err := h(c.Request.Context(), req)
		if err != nil {
			logger.WithError(err).WithField("path", req.Path).Error("Handler failed")
			writeGinResponse(c, newErrorResponse(http.StatusInternalServerError, "An internal error occurred"))
			return
		}

		writeGinResponse(c, resp)
	}
}

func requestFromGin(c *gin.Context) (*lambda.Request, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	query := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	userID, _ := middleware.GetUserID(c)

	return &lambda.Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		PathParams:  params,
		UserID:      userID,
		RequestID:   c.GetString(middleware.RequestIDKey),
	}, nil
}

func writeGinResponse(c *gin.Context, resp *lambda.Response) {
	for name, value := range resp.Headers {
		c.Header(name, value)
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		c.Status(resp.StatusCode)
		return
	}

	contentType := resp.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}
