package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
)

// Resolver turns a dynamic route pattern such as /blog/[slug] into concrete
// routes.
type Resolver struct {
	Name    string
	Match   func(pattern string) bool
	Resolve func() ([]string, error)
}

// SuffixResolver matches patterns ending in suffix.
func SuffixResolver(name, suffix string, resolve func() ([]string, error)) Resolver {
	return Resolver{
		Name:    name,
		Match:   func(pattern string) bool { return strings.HasSuffix(pattern, suffix) },
		Resolve: resolve,
	}
}

// DynamicRouteHandler finds bracketed route directories and resolves them
// through the registered resolvers. Patterns no resolver matches are skipped.
type DynamicRouteHandler struct {
	config Config

	mu        sync.RWMutex
	resolvers []Resolver
	// resolved route -> pattern it came from, as of the last scan
	patterns map[string]string
}

func NewDynamicRouteHandler(config Config, resolvers ...Resolver) *DynamicRouteHandler {
	return &DynamicRouteHandler{config: config.withDefaults(), resolvers: resolvers}
}

func (h *DynamicRouteHandler) Register(r Resolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolvers = append(h.resolvers, r)
}

// FindDynamicRoutes returns the patterns of bracketed directories that hold a
// page file.
func (h *DynamicRouteHandler) FindDynamicRoutes() ([]string, error) {
	var patterns []string
	err := walkPageTree(h.config.AppDir, func(path string, d fs.DirEntry) {
		if !d.IsDir() || path == h.config.AppDir || !isDynamicSegment(d.Name()) {
			return
		}
		if fsutil.Exists(filepath.Join(path, h.config.PageFile)) {
			patterns = append(patterns, routeFor(h.config.AppDir, path))
		}
	})
	return patterns, err
}

func (h *DynamicRouteHandler) ScanDynamicRoutes() ([]string, error) {
	patterns, err := h.FindDynamicRoutes()
	if err != nil {
		return nil, err
	}

	var routes []string
	origin := make(map[string]string)
	for _, pattern := range patterns {
		for _, route := range h.ResolveDynamicRoute(pattern) {
			routes = append(routes, route)
			origin[route] = pattern
		}
	}

	h.mu.Lock()
	h.patterns = origin
	h.mu.Unlock()

	h.config.Logger.LogDebug("Resolved %d dynamic patterns to %d routes", len(patterns), len(routes))
	return routes, nil
}

// ResolveDynamicRoute resolves pattern with the first matching resolver.
func (h *DynamicRouteHandler) ResolveDynamicRoute(pattern string) []string {
	h.mu.RLock()
	resolvers := append([]Resolver(nil), h.resolvers...)
	h.mu.RUnlock()

	for _, r := range resolvers {
		if !r.Match(pattern) {
			continue
		}
		routes, err := r.Resolve()
		if err != nil {
			h.warn(fmt.Sprintf("Could not resolve dynamic route %s with %s resolver: %v", pattern, r.Name, err))
			return nil
		}
		return routes
	}
	h.warn(fmt.Sprintf("Skipping unresolved dynamic route: %s", pattern))
	return nil
}

// DynamicRouteMetadata dates a resolved route by the page file of the pattern
// it was resolved from. Routes unknown to the last scan are looked up as is.
func (h *DynamicRouteHandler) DynamicRouteMetadata(route string) models.RouteMetadata {
	h.mu.RLock()
	source, ok := h.patterns[route]
	h.mu.RUnlock()
	if !ok {
		source = route
	}

	return models.RouteMetadata{
		Path:         route,
		Type:         models.RouteDynamic,
		LastModified: modTimeOr(h.config, pageFilePath(h.config, source)),
		Priority:     models.DefaultPriority,
		ChangeFreq:   models.DefaultChangeFreq,
	}
}

func (h *DynamicRouteHandler) warn(msg string) {
	if h.config.Reporter != nil {
		h.config.Reporter.AddWarning(msg)
		return
	}
	h.config.Logger.LogWarn("%s", msg)
}

// ParamName extracts the parameter of a segment: "id" for "[id]" and "path"
// for "[...path]".
func ParamName(segment string) (string, bool) {
	m := dynamicSegment.FindStringSubmatch(segment)
	if m == nil {
		return "", false
	}
	return strings.TrimPrefix(m[1], "..."), true
}

func IsCatchAll(segment string) bool {
	return catchAllSegment.MatchString(segment)
}

func isDynamicSegment(name string) bool {
	return dynamicSegment.MatchString(name)
}
