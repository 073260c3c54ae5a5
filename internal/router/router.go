package router

import (
	"strings"

	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
)

// HandlerFunc handles a routed request. params holds the values of the
// route's :name segments.
type HandlerFunc func(req *request.Request, params Params) *response.Response

// Params maps parameter names to path segment values.
type Params map[string]string

// Get returns the value of a parameter, or "" if it is not set.
func (p Params) Get(name string) string {
	return p[name]
}

// Route represents a single route
type Route struct {
	Method  request.Method
	Path    string
	Handler HandlerFunc
	Params  []string // parameter names, e.g. ["id", "postId"]

	parts []string
}

// Router matches requests against registered routes in registration order.
// It is not safe to register routes while serving.
type Router struct {
	routes []*Route
}

func New() *Router {
	return &Router{}
}

// Route registers handler for method and path pattern
func (r *Router) Route(method request.Method, path string, handler HandlerFunc) {
	r.routes = append(r.routes, &Route{
		Method:  method,
		Path:    path,
		Handler: handler,
		Params:  extractParams(path),
		parts:   strings.Split(path, "/"),
	})
}

func (r *Router) GET(path string, handler HandlerFunc) {
	r.Route(request.MethodGet, path, handler)
}

func (r *Router) POST(path string, handler HandlerFunc) {
	r.Route(request.MethodPost, path, handler)
}

func (r *Router) PUT(path string, handler HandlerFunc) {
	r.Route(request.MethodPut, path, handler)
}

func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.Route(request.MethodDelete, path, handler)
}

func (r *Router) PATCH(path string, handler HandlerFunc) {
	r.Route(request.MethodPatch, path, handler)
}

// Match finds the first route for method and path. When no route has the
// method but some match the path, their methods are returned as allowed.
func (r *Router) Match(method request.Method, path string) (*Route, Params, []request.Method) {
	pathParts := strings.Split(path, "/")

	var allowed []request.Method
	for _, route := range r.routes {
		params, ok := matchPath(route.parts, pathParts)
		if !ok {
			continue
		}
		if route.Method == method {
			return route, params, nil
		}
		allowed = appendUnique(allowed, route.Method)
	}
	return nil, nil, allowed
}

// Handle dispatches req to the matching route. Unknown paths get 404, known
// paths with another method get 405 and an Allow header.
func (r *Router) Handle(req *request.Request) *response.Response {
	route, params, allowed := r.Match(req.Method, req.Path)
	if route != nil {
		return route.Handler(req, params)
	}

	if len(allowed) == 0 {
		return response.Error(response.StatusNotFound, "")
	}

	names := make([]string, len(allowed))
	for i, m := range allowed {
		names[i] = m.String()
	}
	return response.Error(response.StatusMethodNotAllowed, "").
		WithHeader("Allow", strings.Join(names, ", "))
}

// extractParams extracts parameter names from a path pattern
// Example: "/users/:id/posts/:postId" -> ["id", "postId"]
func extractParams(path string) []string {
	var params []string
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ":") {
			params = append(params, part[1:])
		}
	}
	return params
}

// matchPath checks split path segments against a split pattern
func matchPath(patternParts, pathParts []string) (Params, bool) {
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(Params)
	for i, patternPart := range patternParts {
		pathPart := pathParts[i]

		if strings.HasPrefix(patternPart, ":") {
			if pathPart == "" {
				return nil, false
			}
			params[patternPart[1:]] = pathPart
		} else if patternPart != pathPart {
			return nil, false
		}
	}
	return params, true
}

func appendUnique(methods []request.Method, m request.Method) []request.Method {
	for _, existing := range methods {
		if existing == m {
			return methods
		}
	}
	return append(methods, m)
}
