package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/middleware"
)

// ServerConfig holds the gin-only settings of the local server
type ServerConfig struct {
	AuthService       *middleware.AuthService
	RateLimitRPS      float64
	RateLimitBurst    int
	EnableSwagger     bool
	EnableDevRoutes   bool
	SlowRequestCutoff time.Duration
}

// SetupRoutes configures the API routes on a gin engine. The routes and
// their auth requirements mirror the Lambda route table.
func SetupRoutes(router *gin.Engine, config *RouterConfig, server *ServerConfig) {
	api := NewAPIRouter(config)
	handlers := make(map[string]gin.HandlerFunc, len(api.Routes()))
	for _, route := range api.Routes() {
		handlers[route.Name] = GinHandler(config.Logger, route.Handler)
	}
	adapt := func(name string) gin.HandlerFunc { return handlers[name] }

	auth := middleware.Authentication(server.AuthService)

	if server.EnableSwagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/health", adapt("health_check"))

	v0 := router.Group("/v0")
	{
		requests := v0.Group("/requests")
		{
			requests.GET("", adapt("list_requests"))
			requests.GET("/:request_id", adapt("get_request"))
			requests.POST("", auth, adapt("create_request"))
			requests.PATCH("/:request_id", auth, adapt("update_request"))
			requests.DELETE("/:request_id", auth, adapt("delete_request"))
		}

		v0.GET("/users/:user_id/requests", auth, adapt("list_user_requests"))

		favorites := v0.Group("/favorites")
		favorites.Use(auth)
		{
			favorites.POST("", adapt("create_favorite"))
			favorites.GET("", adapt("list_user_favorites"))
			favorites.DELETE("/:favorite_id", adapt("delete_favorite"))
		}
	}

	if server.EnableDevRoutes {
		SetupDevelopmentRoutes(router, server.AuthService)
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, server *ServerConfig) {
	router.Use(middleware.Recovery())

	// Request ID first so every later line carries it
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger())

	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Request size limit (1MB)
	router.Use(middleware.RequestSizeLimit(1 << 20))
	router.Use(middleware.ContentTypeValidation("application/json"))
	router.Use(middleware.RequestValidation())

	if server.RateLimitRPS > 0 {
		router.Use(middleware.RateLimiter(server.RateLimitRPS, server.RateLimitBurst))
	}

	router.Use(middleware.PerformanceMonitor(server.SlowRequestCutoff))
	router.Use(middleware.AuditLogger())
}

// SetupDevelopmentRoutes adds development-only routes
func SetupDevelopmentRoutes(router *gin.Engine, authService *middleware.AuthService) {
	dev := router.Group("/dev")
	{
		// Issue a token for a given user ID for local testing
		dev.POST("/token", func(c *gin.Context) {
			var body struct {
				UserID string `json:"user_id" binding:"required"`
				Email  string `json:"email"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(400, ErrorResponse{Error: "Validation failed", Message: err.Error()})
				return
			}

			token, err := authService.GenerateToken(body.UserID, body.Email)
			if err != nil {
				c.JSON(500, ErrorResponse{Error: "Internal server error", Message: err.Error()})
				return
			}
			c.JSON(200, gin.H{"token": token})
		})
	}
}
