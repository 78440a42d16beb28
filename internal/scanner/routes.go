package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

var (
	dynamicSegment  = regexp.MustCompile(`\[([^\]]+)\]`)
	catchAllSegment = regexp.MustCompile(`\[\.\.\.([^\]]+)\]`)
)

type Config struct {
	AppDir   string
	PageFile string
	Stater   fsutil.Stater
	Logger   *utils.Logger
	Reporter errhandler.Reporter
	Now      func() time.Time
}

func (c Config) withDefaults() Config {
	if c.PageFile == "" {
		c.PageFile = "page.tsx"
	}
	if c.Stater == nil {
		c.Stater = fsutil.OS{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// RouteScanner discovers routes from a page tree: every directory holding a
// page file is a route.
type RouteScanner struct {
	config  Config
	dynamic *DynamicRouteHandler
}

func NewRouteScanner(config Config, dynamic *DynamicRouteHandler) *RouteScanner {
	config = config.withDefaults()
	if dynamic == nil {
		dynamic = NewDynamicRouteHandler(config)
	}
	return &RouteScanner{config: config, dynamic: dynamic}
}

func (s *RouteScanner) Dynamic() *DynamicRouteHandler {
	return s.dynamic
}

// ScanStaticRoutes returns every route without a bracket segment. A missing
// page tree yields no routes.
func (s *RouteScanner) ScanStaticRoutes() ([]string, error) {
	var routes []string
	err := walkPageTree(s.config.AppDir, func(path string, d fs.DirEntry) {
		if d.IsDir() || d.Name() != s.config.PageFile {
			return
		}
		route := routeFor(s.config.AppDir, filepath.Dir(path))
		if !IsDynamicRoute(route) {
			routes = append(routes, route)
		}
	})
	if err != nil {
		return nil, err
	}
	s.config.Logger.LogDebug("Found %d static routes in %s", len(routes), s.config.AppDir)
	return routes, nil
}

func (s *RouteScanner) ScanDynamicRoutes() ([]string, error) {
	return s.dynamic.ScanDynamicRoutes()
}

// RouteMetadata describes route using the mtime of its page file, or the
// current time when the file can't be statted.
func (s *RouteScanner) RouteMetadata(route string) models.RouteMetadata {
	routeType := models.RouteStatic
	if IsDynamicRoute(route) {
		routeType = models.RouteDynamic
	}
	return models.RouteMetadata{
		Path:         route,
		Type:         routeType,
		LastModified: modTimeOr(s.config, pageFilePath(s.config, route)),
		Priority:     models.DefaultPriority,
		ChangeFreq:   models.DefaultChangeFreq,
	}
}

// IsDynamicRoute reports whether route contains a bracket segment.
func IsDynamicRoute(route string) bool {
	return dynamicSegment.MatchString(route) || catchAllSegment.MatchString(route)
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "api"
}

// walkPageTree visits root in lexical order, pruning skipped directories.
func walkPageTree(root string, visit func(path string, d fs.DirEntry)) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		visit(path, d)
		return nil
	})
}

func routeFor(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func pageFilePath(c Config, route string) string {
	segments := strings.Split(strings.Trim(route, "/"), "/")
	return filepath.Join(append(append([]string{c.AppDir}, segments...), c.PageFile)...)
}

func modTimeOr(c Config, path string) time.Time {
	if t, ok := c.Stater.ModTime(path); ok {
		return t
	}
	c.Logger.LogDebug("Could not stat %s", path)
	return c.Now()
}
