// Package routes declares HTTP routes as data so domain handlers can
// describe their endpoints and the API module can mount and document them.
package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/qagate/pkg/openapi"
)

// Route binds an HTTP method and path pattern to a handler. OpenAPI,
// when set, documents the route in the generated API description.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group collects routes and nested groups under a shared prefix.
type Group struct {
	Prefix   string
	Tags     []string
	Schemas  map[string]*openapi.Schema
	Routes   []Route
	Children []Group
}

// Patterns returns every "METHOD /path" pattern in g, depth first.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(path string, r Route) {
		out = append(out, r.Method+" "+path)
	})
	return out
}

// Register mounts all groups on mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.walk("", func(path string, r Route) {
			mux.HandleFunc(r.Method+" "+path, r.Handler)
		})
	}
}

// Document adds the schemas and documented routes of each group to spec.
// Operations without tags inherit the tags of their group.
func Document(spec *openapi.Spec, groups ...Group) {
	for _, g := range groups {
		g.document(spec, nil)
	}
}

func (g Group) document(spec *openapi.Spec, tags []string) {
	if len(g.Tags) > 0 {
		tags = g.Tags
	}
	spec.Components.AddSchemas(g.Schemas)

	for _, r := range g.Routes {
		if r.OpenAPI == nil {
			continue
		}
		op := *r.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		spec.AddOperation(r.Method, openAPIPath(g.Prefix+r.Pattern), &op)
	}

	for _, child := range g.Children {
		child.Prefix = g.Prefix + child.Prefix
		child.document(spec, tags)
	}
}

func (g Group) walk(parent string, fn func(path string, r Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(prefix+r.Pattern, r)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// openAPIPath rewrites ServeMux wildcards such as {key...} to {key}.
func openAPIPath(pattern string) string {
	return strings.ReplaceAll(pattern, "...}", "}")
}
