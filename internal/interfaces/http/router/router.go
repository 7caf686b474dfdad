// Package router declares the engine's HTTP surface as resources mounted
// under a versioned API prefix.
package router

import (
	"cmp"
	"net/http"
	"path"
	"slices"

	"github.com/gin-gonic/gin"
)

// RouteInfo describes one mounted route. Guarded routes run behind the
// router's guard middleware.
type RouteInfo struct {
	Method  string
	Path    string
	Guarded bool
}

type endpoint struct {
	method  string
	path    string
	handler gin.HandlerFunc
	command bool
}

// Resource is the set of endpoints under one path prefix. Queries are plain
// GETs; commands are POSTs that change state.
type Resource struct {
	prefix    string
	endpoints []endpoint
}

func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

func (res *Resource) Query(p string, h gin.HandlerFunc) *Resource {
	res.endpoints = append(res.endpoints, endpoint{method: http.MethodGet, path: p, handler: h})
	return res
}

func (res *Resource) Command(p string, h gin.HandlerFunc) *Resource {
	res.endpoints = append(res.endpoints, endpoint{method: http.MethodPost, path: p, handler: h, command: true})
	return res
}

// Router mounts resources on a gin engine and remembers what it mounted
type Router struct {
	engine *gin.Engine
	api    *gin.RouterGroup
	guard  gin.HandlerFunc
	routes []RouteInfo
}

// NewRouter prefixes resources with /api/<version>. A non-nil guard runs
// in front of every command.
func NewRouter(engine *gin.Engine, version string, guard gin.HandlerFunc) *Router {
	if version == "" {
		version = "v1"
	}
	return &Router{engine: engine, api: engine.Group("/api/" + version), guard: guard}
}

func (r *Router) BasePath() string { return r.api.BasePath() }

// Probe registers an unversioned, unguarded GET such as /health
func (r *Router) Probe(p string, h gin.HandlerFunc) {
	r.engine.GET(p, h)
	r.routes = append(r.routes, RouteInfo{Method: http.MethodGet, Path: p})
}

func (r *Router) Mount(resources ...*Resource) {
	for _, res := range resources {
		group := r.api.Group(res.prefix)
		for _, ep := range res.endpoints {
			chain := []gin.HandlerFunc{ep.handler}
			guarded := ep.command && r.guard != nil
			if guarded {
				chain = []gin.HandlerFunc{r.guard, ep.handler}
			}
			group.Handle(ep.method, ep.path, chain...)
			r.routes = append(r.routes, RouteInfo{
				Method:  ep.method,
				Path:    path.Join(group.BasePath(), ep.path),
				Guarded: guarded,
			})
		}
	}
}

// Routes lists mounted routes sorted by path, then method
func (r *Router) Routes() []RouteInfo {
	routes := slices.Clone(r.routes)
	slices.SortFunc(routes, func(a, b RouteInfo) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return routes
}
