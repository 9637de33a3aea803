package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/database"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/middleware"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories/sqlstore"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/services"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

const buyBody = `{"type":"buy_and_deliver","title":"Bread","description":"two loaves","due_date":"2030-01-02T10:00:00Z","dropoff_latitude":36.8,"dropoff_longitude":10.18}`

func setupTestRouterConfig(t *testing.T) (*RouterConfig, func()) {
	tempDir, err := os.MkdirTemp("", "handlers_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	config := repositories.DefaultConfig()
	config.Database.Path = filepath.Join(tempDir, "test.db")

	dbManager := database.NewManager(config, logger)
	if err := dbManager.Connect(context.Background()); err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to connect: %v", err)
	}

	repoManager := sqlstore.NewRepositoryManager(dbManager.GetDB(), config, logger)
	svc, err := services.NewServiceContainer(repoManager.Container(), &services.ServiceConfig{
		Query:  config.Query,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Failed to create services: %v", err)
	}

	routerConfig := &RouterConfig{
		RequestHandler:  NewRequestHandler(svc.RequestService, logger),
		FavoriteHandler: NewFavoriteHandler(svc.FavoriteService, logger),
		HealthHandler:   NewHealthHandler(repoManager.Health, logger),
		Logger:          logger,
	}

	cleanup := func() {
		dbManager.Close()
		os.RemoveAll(tempDir)
	}
	return routerConfig, cleanup
}

func invoke(t *testing.T, router *Router, method, path, userID, body string) (*lambda.Response, map[string]interface{}) {
	t.Helper()
	resp := router.Handle(context.Background(), &lambda.Request{
		Method:    method,
		Path:      path,
		Body:      []byte(body),
		UserID:    userID,
		RequestID: "test",
	})

	var decoded map[string]interface{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &decoded); err != nil {
			t.Fatalf("Response is not JSON: %s", resp.Body)
		}
	}
	return resp, decoded
}

func TestPathToRegex(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		match   bool
		params  map[string]string
	}{
		{"/v0/requests", "/v0/requests", true, nil},
		{"/v0/requests", "/v0/requests/", false, nil},
		{"/v0/requests/{request_id}", "/v0/requests/abc", true, map[string]string{"request_id": "abc"}},
		{"/v0/requests/{request_id}", "/v0/requests/abc/extra", false, nil},
		{"/v0/users/{user_id}/requests", "/v0/users/u-1/requests", true, map[string]string{"user_id": "u-1"}},
	}

	for _, tt := range tests {
		re := pathToRegex(tt.pattern)
		m := re.FindStringSubmatch(tt.path)
		if (m != nil) != tt.match {
			t.Errorf("%s against %s: match = %v, want %v", tt.pattern, tt.path, m != nil, tt.match)
			continue
		}
		for name, want := range tt.params {
			if got := m[re.SubexpIndex(name)]; got != want {
				t.Errorf("%s: param %s = %q, want %q", tt.path, name, got, want)
			}
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", repositories.ValidationError("request", "", errors.New("bad")), http.StatusBadRequest},
		{"validation with unknown type", repositories.ValidationError("request", "", &models.UnknownTypeError{Type: "x"}), http.StatusBadRequest},
		{"forbidden", services.ForbiddenError("Not authorized to update this request"), http.StatusForbidden},
		{"not found", repositories.NotFoundError("request", "1"), http.StatusNotFound},
		{"duplicate", repositories.DuplicateError("favorite", "request_id", "1", nil), http.StatusConflict},
		{"unknown type", repositories.UnknownTypeError("request", "1", errors.New("x")), http.StatusInternalServerError},
		{"persistence", repositories.NewRepositoryError("insert", "request", "1", errors.New("disk")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		query      map[string]string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"absent", nil, 0, 0, false},
		{"explicit", map[string]string{"limit": "5", "offset": "10"}, 5, 10, false},
		{"zero limit", map[string]string{"limit": "0"}, 0, 0, true},
		{"negative limit", map[string]string{"limit": "-3"}, 0, 0, true},
		{"not a number", map[string]string{"offset": "abc"}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := pagination(&lambda.Request{QueryParams: tt.query})
			if (err != nil) != tt.wantErr {
				t.Fatalf("pagination() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !repositories.IsValidation(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("pagination() = %d, %d; want %d, %d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestRouter_RequestLifecycle(t *testing.T) {
	config, cleanup := setupTestRouterConfig(t)
	defer cleanup()
	router := NewAPIRouter(config)

	resp, body := invoke(t, router, http.MethodGet, "/health", "", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}

	resp, _ = invoke(t, router, http.MethodGet, "/v0/unknown", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.StatusCode)
	}

	resp, _ = invoke(t, router, http.MethodPut, "/v0/requests", "alice", buyBody)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("wrong method status = %d, want 404", resp.StatusCode)
	}

	resp, _ = invoke(t, router, http.MethodPost, "/v0/requests", "", buyBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", resp.StatusCode)
	}

	resp, body = invoke(t, router, http.MethodPost, "/v0/requests", "alice", buyBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["request_id"].(string)
	request, _ := body["request"].(map[string]interface{})
	if id == "" || request["id"] != id || request["dropoff_latitude"] != 36.8 {
		t.Fatalf("Unexpected create body: %v", body)
	}
	if _, ok := request["pickup_latitude"]; ok {
		t.Error("buy_and_deliver output must not carry pickup fields")
	}

	resp, body = invoke(t, router, http.MethodGet, "/v0/requests/"+id, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got := body["request"].(map[string]interface{})["title"]; got != "Bread" {
		t.Errorf("title = %v, want Bread", got)
	}

	resp, _ = invoke(t, router, http.MethodGet, "/v0/requests/not-a-uuid", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", resp.StatusCode)
	}

	resp, _ = invoke(t, router, http.MethodGet, "/v0/requests/"+uuid.New().String(), "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing request status = %d, want 404", resp.StatusCode)
	}

	resp, body = invoke(t, router, http.MethodGet, "/v0/requests", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if requests := body["requests"].([]interface{}); len(requests) != 1 {
		t.Errorf("list returned %d requests, want 1", len(requests))
	}

	resp, body = invoke(t, router, http.MethodPatch, "/v0/requests/"+id, "bob", `{"title":"Mine now"}`)
	if resp.StatusCode != http.StatusForbidden || body["message"] != "Not authorized to update this request" {
		t.Errorf("foreign update: %d %v", resp.StatusCode, body)
	}

	resp, _ = invoke(t, router, http.MethodPatch, "/v0/requests/"+id, "alice", `{"user_id":"bob"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("immutable field update status = %d, want 400", resp.StatusCode)
	}

	resp, _ = invoke(t, router, http.MethodPatch, "/v0/requests/"+id, "alice", `{"pickup_latitude":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("foreign variant field update status = %d, want 400", resp.StatusCode)
	}

	resp, body = invoke(t, router, http.MethodPatch, "/v0/requests/"+id, "alice", `{"title":"Croissants"}`)
	if resp.StatusCode != http.StatusOK || body["message"] != "Request updated successfully" {
		t.Fatalf("update: %d %v", resp.StatusCode, body)
	}

	resp, _ = invoke(t, router, http.MethodGet, "/v0/users/alice/requests", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous user listing status = %d, want 401", resp.StatusCode)
	}
	resp, body = invoke(t, router, http.MethodGet, "/v0/users/alice/requests", "bob", "")
	if resp.StatusCode != http.StatusOK || len(body["requests"].([]interface{})) != 1 {
		t.Errorf("user listing: %d %v", resp.StatusCode, body)
	}

	resp, _ = invoke(t, router, http.MethodDelete, "/v0/requests/"+id, "bob", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", resp.StatusCode)
	}
	resp, _ = invoke(t, router, http.MethodDelete, "/v0/requests/"+id, "alice", "")
	if resp.StatusCode != http.StatusNoContent || len(resp.Body) != 0 {
		t.Errorf("delete status = %d, want 204 with empty body", resp.StatusCode)
	}
	resp, _ = invoke(t, router, http.MethodDelete, "/v0/requests/"+id, "alice", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRouter_CreateValidation(t *testing.T) {
	config, cleanup := setupTestRouterConfig(t)
	defer cleanup()
	router := NewAPIRouter(config)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "{"},
		{"unknown type", `{"type":"teleport","title":"x"}`},
		{"missing title", `{"type":"online_service","meetup_latitude":1,"meetup_longitude":2}`},
		{"missing coordinates", `{"type":"pickup_and_deliver","title":"x","dropoff_latitude":1,"dropoff_longitude":2}`},
		{"latitude out of range", `{"type":"online_service","title":"x","meetup_latitude":91,"meetup_longitude":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := invoke(t, router, http.MethodPost, "/v0/requests", "alice", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%v)", resp.StatusCode, body)
			}
		})
	}
}

func TestRouter_Favorites(t *testing.T) {
	config, cleanup := setupTestRouterConfig(t)
	defer cleanup()
	router := NewAPIRouter(config)

	_, body := invoke(t, router, http.MethodPost, "/v0/requests", "alice", buyBody)
	requestID := body["request_id"].(string)
	favoriteBody := `{"request_id":"` + requestID + `"}`

	resp, body := invoke(t, router, http.MethodPost, "/v0/favorites", "bob", favoriteBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create favorite: %d %v", resp.StatusCode, body)
	}
	favoriteID, _ := body["favorite_id"].(string)
	if favoriteID == "" {
		t.Fatal("Expected favorite_id in response")
	}

	resp, _ = invoke(t, router, http.MethodPost, "/v0/favorites", "bob", favoriteBody)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate favorite status = %d, want 409", resp.StatusCode)
	}

	resp, _ = invoke(t, router, http.MethodPost, "/v0/favorites", "bob", `{"request_id":"`+uuid.New().String()+`"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("favorite of missing request status = %d, want 404", resp.StatusCode)
	}

	resp, body = invoke(t, router, http.MethodGet, "/v0/favorites", "bob", "")
	if resp.StatusCode != http.StatusOK || len(body["favorites"].([]interface{})) != 1 {
		t.Errorf("list favorites: %d %v", resp.StatusCode, body)
	}

	resp, _ = invoke(t, router, http.MethodDelete, "/v0/favorites/"+favoriteID, "alice", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign favorite delete status = %d, want 403", resp.StatusCode)
	}
	resp, _ = invoke(t, router, http.MethodDelete, "/v0/favorites/"+favoriteID, "bob", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete favorite status = %d, want 204", resp.StatusCode)
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	router := NewRouter(logger)
	router.Add(http.MethodGet, "/boom", "boom", false, func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		panic("boom")
	})
	router.Add(http.MethodGet, "/fail", "fail", false, func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		return nil, errors.New("encode failed")
	})

	for _, path := range []string{"/boom", "/fail"} {
		resp := router.Handle(context.Background(), &lambda.Request{Method: http.MethodGet, Path: path})
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, resp.StatusCode)
		}
	}
}

func TestGinRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config, cleanup := setupTestRouterConfig(t)
	defer cleanup()

	authService := middleware.NewAuthService(&middleware.AuthConfig{JWTSecret: "test-secret"})
	server := &ServerConfig{AuthService: authService}

	engine := gin.New()
	SetupMiddleware(engine, server)
	SetupRoutes(engine, config, server)

	token, err := authService.GenerateToken("alice", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	if w := do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}

	if w := do(http.MethodPost, "/v0/requests", buyBody, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", w.Code)
	}

	w := do(http.MethodPost, "/v0/requests", buyBody, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if w := do(http.MethodGet, "/v0/requests/"+created.RequestID, "", ""); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	if w := do(http.MethodGet, "/v0/requests/not-a-uuid", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", w.Code)
	}

	if w := do(http.MethodGet, "/v0/requests?limit=abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}

	if w := do(http.MethodGet, "/v0/requests?limit=0", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("zero limit status = %d, want 400", w.Code)
	}

	w = do(http.MethodGet, "/v0/requests?limit=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Requests   []map[string]interface{} `json:"requests"`
		Pagination models.Pagination        `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if list.Pagination.Limit != 1 || len(list.Requests) != 1 {
		t.Errorf("Unexpected list: %+v", list)
	}

	other, _ := authService.GenerateToken("bob", "")
	if w := do(http.MethodPatch, "/v0/requests/"+created.RequestID, `{"title":"x"}`, other); w.Code != http.StatusForbidden {
		t.Errorf("foreign update status = %d, want 403", w.Code)
	}

	if w := do(http.MethodDelete, "/v0/requests/"+created.RequestID, "", token); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}

	if w := do(http.MethodGet, "/v0/favorites", "", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}
