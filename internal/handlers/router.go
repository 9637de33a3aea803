package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/pkg/lambda"
)

var pathParamPattern = regexp.MustCompile(`\\\{(\w+)\\\}`)

// Route binds a method and a path pattern such as /v0/requests/{request_id}
type Route struct {
	Method  string
	Path    string
	Name    string
	Auth    bool
	Handler lambda.HandlerFunc

	pattern *regexp.Regexp
}

// Router dispatches Lambda invocations over a linear route table
type Router struct {
	routes []Route
	logger *logrus.Logger
}

// NewRouter creates an empty router
func NewRouter(logger *logrus.Logger) *Router {
	if logger == nil {
		logger = logrus.New()
	}
	return &Router{logger: logger}
}

// Add registers a route; the first matching route wins
func (r *Router) Add(method, path, name string, auth bool, handler lambda.HandlerFunc) {
	r.routes = append(r.routes, Route{
		Method:  method,
		Path:    path,
		Name:    name,
		Auth:    auth,
		Handler: handler,
		pattern: pathToRegex(path),
	})
}

// Routes returns the registered routes in match order
func (r *Router) Routes() []Route {
	return r.routes
}

// pathToRegex turns {name} segments into named groups matching one segment
func pathToRegex(path string) *regexp.Regexp {
	pattern := pathParamPattern.ReplaceAllString(regexp.QuoteMeta(path), `(?P<${1}>[^/]+)`)
	return regexp.MustCompile("^" + pattern + "$")
}

// Handle routes req and writes one access log line for it
func (r *Router) Handle(ctx context.Context, req *lambda.Request) (resp *lambda.Response) {
	start := time.Now()
	routeName := "not_found"

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"request_id": req.RequestID,
				"panic":      fmt.Sprint(rec),
			}).Error("Recovered from panic")
			resp = newErrorResponse(http.StatusInternalServerError, "An internal error occurred")
		}

		r.logger.WithFields(logrus.Fields{
			"request_id":      req.RequestID,
			"app_route":       routeName,
			"app_method":      req.Method,
			"app_path":        req.Path,
			"app_status":      resp.StatusCode,
			"app_duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		}).Info("Request handled")
	}()

	route, params, ok := r.match(req.Method, req.Path)
	if !ok {
		return notFoundResponse()
	}
	routeName = route.Name

	if req.PathParams == nil {
		req.PathParams = make(map[string]string, len(params))
	}
	for k, v := range params {
		req.PathParams[k] = v
	}

	if route.Auth && req.UserID == "" {
		return unauthorizedResponse()
	}

	resp, err := route.Handler(ctx, req)
	if err != nil {
		r.logger.WithError(err).WithField("request_id", req.RequestID).Error("Handler failed")
		return newErrorResponse(http.StatusInternalServerError, "An internal error occurred")
	}
	if resp == nil {
		return newErrorResponse(http.StatusInternalServerError, "An internal error occurred")
	}
	return resp
}

func (r *Router) match(method, path string) (*Route, map[string]string, bool) {
	for i := range r.routes {
		route := &r.routes[i]
		if route.Method != method {
			continue
		}
		m := route.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := make(map[string]string)
		for j, name := range route.pattern.SubexpNames() {
			if j > 0 && name != "" {
				params[name] = m[j]
			}
		}
		return route, params, true
	}
	return nil, nil, false
}

// RouterConfig holds the dependencies of the API routes
type RouterConfig struct {
	RequestHandler  *RequestHandler
	FavoriteHandler *FavoriteHandler
	HealthHandler   *HealthHandler
	Logger          *logrus.Logger
}

// NewAPIRouter builds the Lambda route table
func NewAPIRouter(config *RouterConfig) *Router {
	router := NewRouter(config.Logger)

	router.Add(http.MethodGet, "/health", "health_check", false, config.HealthHandler.HandleHealth)

	router.Add(http.MethodGet, "/v0/requests", "list_requests", false, config.RequestHandler.HandleList)
	router.Add(http.MethodPost, "/v0/requests", "create_request", true, config.RequestHandler.HandleCreate)
	router.Add(http.MethodGet, "/v0/requests/{request_id}", "get_request", false, config.RequestHandler.HandleGet)
	router.Add(http.MethodDelete, "/v0/requests/{request_id}", "delete_request", true, config.RequestHandler.HandleDelete)
	router.Add(http.MethodPatch, "/v0/requests/{request_id}", "update_request", true, config.RequestHandler.HandleUpdate)
	router.Add(http.MethodGet, "/v0/users/{user_id}/requests", "list_user_requests", true, config.RequestHandler.HandleListByUser)

	router.Add(http.MethodPost, "/v0/favorites", "create_favorite", true, config.FavoriteHandler.HandleCreate)
	router.Add(http.MethodDelete, "/v0/favorites/{favorite_id}", "delete_favorite", true, config.FavoriteHandler.HandleDelete)
	router.Add(http.MethodGet, "/v0/favorites", "list_user_favorites", true, config.FavoriteHandler.HandleList)

	return router
}
