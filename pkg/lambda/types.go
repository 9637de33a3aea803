package lambda

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Request represents a generic HTTP request for serverless functions
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	Body        []byte            `json:"body"`
	PathParams  map[string]string `json:"path_params"`

	// UserID is the authenticated principal, empty for anonymous calls
	UserID string `json:"user_id,omitempty"`

	// RequestID correlates the call with the platform's logs
	RequestID string `json:"request_id,omitempty"`
}

// Response represents a generic HTTP response for serverless functions
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// HandlerFunc is a framework-agnostic handler interface
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// PathParam returns a path parameter or the empty string
func (r *Request) PathParam(name string) string {
	if r.PathParams == nil {
		return ""
	}
	return r.PathParams[name]
}

// Query returns a query string parameter or the empty string
func (r *Request) Query(name string) string {
	if r.QueryParams == nil {
		return ""
	}
	return r.QueryParams[name]
}

// FromAPIGatewayV2 converts an HTTP API (payload v2) event. The principal is
// the "sub" claim set by the JWT authorizer.
func FromAPIGatewayV2(event events.APIGatewayV2HTTPRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	headers := make(map[string]string, len(event.Headers))
	for k, v := range event.Headers {
		headers[strings.ToLower(k)] = v
	}

	pathParams := make(map[string]string, len(event.PathParameters))
	for k, v := range event.PathParameters {
		pathParams[k] = v
	}

	req := &Request{
		Method:      event.RequestContext.HTTP.Method,
		Path:        event.RawPath,
		Headers:     headers,
		QueryParams: event.QueryStringParameters,
		Body:        body,
		PathParams:  pathParams,
		RequestID:   event.RequestContext.RequestID,
	}
	if req.Path == "" {
		req.Path = event.RequestContext.HTTP.Path
	}

	if auth := event.RequestContext.Authorizer; auth != nil && auth.JWT != nil {
		req.UserID = auth.JWT.Claims["sub"]
	}

	return req, nil
}

// ToAPIGatewayV2 converts the response into an HTTP API (payload v2) response
func (r *Response) ToAPIGatewayV2() events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       string(r.Body),
	}
}
