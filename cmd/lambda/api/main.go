package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/handlers"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
	"github.com/fdebbabi/nwassik-backend-serverless/pkg/server"
)

var (
	logger      *logrus.Logger
	connections *lambda.ConnectionManager

	routerMu        sync.Mutex
	router          *handlers.Router
	routerContainer *server.Container
)

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger = config.NewLogger(cfg.Log)
	connections = lambda.GetConnectionManager()
	connections.Initialize(cfg, logger)
}

// routerFor rebuilds the route table only when the container was replaced
func routerFor(container *server.Container) *handlers.Router {
	routerMu.Lock()
	defer routerMu.Unlock()

	if router == nil || routerContainer != container {
		router = handlers.NewAPIRouter(&handlers.RouterConfig{
			RequestHandler:  handlers.NewRequestHandler(container.RequestService, logger),
			FavoriteHandler: handlers.NewFavoriteHandler(container.FavoriteService, logger),
			HealthHandler:   handlers.NewHealthHandler(container.HealthCheck, logger),
			Logger:          logger,
		})
		routerContainer = container
	}
	return router
}

func handler(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := lambda.FromAPIGatewayV2(event)
	if err != nil {
		logger.WithError(err).Warn("Failed to decode request body")
		return errorEvent(http.StatusBadRequest, `{"error":"Bad request","message":"Request body is not valid base64"}`), nil
	}

	container, release, err := connections.GetContainer(ctx)
	if err != nil {
		logger.WithError(err).WithField("request_id", req.RequestID).Error("Failed to initialize service container")
		return errorEvent(http.StatusInternalServerError, `{"error":"Internal server error","message":"An internal error occurred"}`), nil
	}

	defer release()

	resp := routerFor(container).Handle(ctx, req)
	return resp.ToAPIGatewayV2(), nil
}

func errorEvent(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func main() {
	awslambda.Start(handler)
}
