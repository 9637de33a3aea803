package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "secret"})

	token, err := auth.GenerateToken("user-1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "user@example.com" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if claims.Issuer != "nwassik-api" {
		t.Errorf("Issuer = %q, want nwassik-api", claims.Issuer)
	}

	if _, err := auth.GenerateToken("", ""); err == nil {
		t.Error("Expected error for empty user ID")
	}
}

func TestAuthService_RejectsInvalidTokens(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "secret"})
	other := NewAuthService(&AuthConfig{JWTSecret: "other-secret"})
	foreignIssuer := NewAuthService(&AuthConfig{JWTSecret: "secret", Issuer: "someone-else"})
	expired := NewAuthService(&AuthConfig{JWTSecret: "secret", TokenDuration: -time.Minute})

	wrongKey, _ := other.GenerateToken("user-1", "")
	wrongIssuer, _ := foreignIssuer.GenerateToken("user-1", "")
	stale, _ := expired.GenerateToken("user-1", "")

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "nwassik-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", wrongKey},
		{"wrong issuer", wrongIssuer},
		{"expired", stale},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ValidateToken(tt.token); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "secret"})
	token, _ := auth.GenerateToken("user-1", "")

	engine := gin.New()
	engine.GET("/me", Authentication(auth), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.String(http.StatusOK, userID)
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer " + token, http.StatusOK, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := perform(engine, http.MethodGet, "/me", "", headers)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestOptionalAuthentication(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "secret"})
	token, _ := auth.GenerateToken("user-1", "")

	engine := gin.New()
	engine.GET("/me", OptionalAuthentication(auth), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			userID = "anonymous"
		}
		c.String(http.StatusOK, userID)
	})

	if w := perform(engine, http.MethodGet, "/me", "", nil); w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}
	if w := perform(engine, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer bad"}); w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}
	if w := perform(engine, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + token}); w.Body.String() != "user-1" {
		t.Errorf("body = %q, want user-1", w.Body.String())
	}
}

func TestRequestValidation(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestValidation())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.GET("/requests", ok)
	engine.GET("/requests/:request_id", ok)
	engine.GET("/users/:user_id/requests", ok)

	tests := []struct {
		path   string
		status int
	}{
		{"/requests", http.StatusOK},
		{"/requests?limit=10&offset=0", http.StatusOK},
		{"/requests?limit=-1", http.StatusBadRequest},
		{"/requests?limit=0", http.StatusBadRequest},
		{"/requests?offset=0", http.StatusOK},
		{"/requests?offset=abc", http.StatusBadRequest},
		{"/requests/" + uuid.New().String(), http.StatusOK},
		{"/requests/not-a-uuid", http.StatusBadRequest},
		{"/users/any-user/requests", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := perform(engine, http.MethodGet, tt.path, "", nil); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimiter(0.001, 2))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := perform(engine, http.MethodGet, "/", "", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	if w := perform(engine, http.MethodGet, "/", "", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestContentTypeValidation(t *testing.T) {
	engine := gin.New()
	engine.Use(ContentTypeValidation("application/json"))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.POST("/", ok)
	engine.DELETE("/", ok)

	tests := []struct {
		name        string
		method      string
		contentType string
		status      int
	}{
		{"json", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"unsupported", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"delete without body", http.MethodDelete, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.contentType != "" {
				headers["Content-Type"] = tt.contentType
			}
			if w := perform(engine, tt.method, "/", "{}", headers); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestCORSAndRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), CORS())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := perform(engine, http.MethodOptions, "/", "", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Error("Expected PATCH in allowed methods")
	}

	w = perform(engine, http.MethodGet, "/", "", map[string]string{"X-Request-ID": "abc"})
	if w.Body.String() != "abc" || w.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request ID not propagated: body %q header %q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}

	w = perform(engine, http.MethodGet, "/", "", nil)
	if w.Body.String() == "" {
		t.Error("Expected a generated request ID")
	}
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery())
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	if w := perform(engine, http.MethodGet, "/", "", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestExtractResourceID(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		path string
		want string
	}{
		{"/v0/requests/" + id, id},
		{"/v0/favorites/" + id, id},
		{"/v0/users/alice/requests", ""},
		{"/v0/requests", ""},
	}

	for _, tt := range tests {
		if got := extractResourceID(tt.path); got != tt.want {
			t.Errorf("extractResourceID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
