package sitemap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/romangod6/sitemap-gen/config"
	"github.com/romangod6/sitemap-gen/internal/blog"
	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/scanner"
	"github.com/romangod6/sitemap-gen/internal/storage"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

// State is the pipeline stage a run is in.
type State string

const (
	StateIdle        State = "idle"
	StateCollecting  State = "collecting"
	StateValidating  State = "validating"
	StateSerializing State = "serializing"
	StateWriting     State = "writing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Generator runs the whole pipeline: scan routes and posts, build entries,
// serialize and optionally write. Runs on one Generator are serialized.
type Generator struct {
	mu sync.Mutex

	manager *config.Manager
	paths   config.PathsConfig
	logger  *utils.Logger
	errors  *errhandler.Handler
	history storage.Store
	now     func() time.Time
	stater  fsutil.Stater

	blogSource  blog.Source
	blogScanner *blog.Scanner
	blogMeta    *blog.MetadataHandler
	routes      *scanner.RouteScanner
	xml         *XMLGenerator

	stateMu sync.RWMutex
	state   State
}

// Option configures a Generator.
type Option func(*Generator)

// WithHistory records every run in store. History failures only produce
// warnings.
func WithHistory(store storage.Store) Option {
	return func(g *Generator) { g.history = store }
}

// WithBlogSource replaces the markdown blog directory as the post source.
func WithBlogSource(src blog.Source) Option {
	return func(g *Generator) { g.blogSource = src }
}

// WithLogger sets the logger used by the generator and its scanners.
func WithLogger(logger *utils.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithClock replaces time.Now, the fallback for lastmod dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithStater replaces the file system used to date pages.
func WithStater(s fsutil.Stater) Option {
	return func(g *Generator) { g.stater = s }
}

// New builds a Generator reading its settings from manager.
func New(manager *config.Manager, opts ...Option) *Generator {
	g := &Generator{
		manager: manager,
		now:     time.Now,
		stater:  fsutil.OS{},
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.paths = manager.Settings().Paths
	g.errors = errhandler.NewHandler(g.logger)

	if g.blogSource == nil {
		g.blogSource = &blog.MarkdownSource{Dir: g.paths.BlogPath(), Logger: g.logger, Now: g.now}
	}
	g.blogScanner = blog.NewScanner(g.blogSource, g.logger).WithClock(g.now)
	g.blogMeta = blog.NewMetadataHandler(g.blogSource, blog.MetadataConfig{
		Dir:    g.paths.BlogPath(),
		Stater: g.stater,
		Logger: g.logger,
		Now:    g.now,
	})

	scanConfig := scanner.Config{
		AppDir:   g.paths.AppPath(),
		PageFile: g.paths.PageFile,
		Stater:   g.stater,
		Logger:   g.logger,
		Reporter: g.errors,
		Now:      g.now,
	}
	dynamic := scanner.NewDynamicRouteHandler(scanConfig,
		scanner.SuffixResolver("blog", "/blog/[slug]", g.blogScanner.ResolveURLs),
	)
	g.routes = scanner.NewRouteScanner(scanConfig, dynamic)

	g.xml = NewXMLGenerator(g.errors)
	g.xml.now = g.now

	return g
}

func (g *Generator) ConfigManager() *config.Manager {
	return g.manager
}

func (g *Generator) Config() models.SitemapConfig {
	return g.manager.Config()
}

// UpdateConfig applies u to the configuration used by subsequent runs.
func (g *Generator) UpdateConfig(u config.Update) error {
	return g.manager.UpdateConfig(u)
}

func (g *Generator) Routes() *scanner.RouteScanner {
	return g.routes
}

func (g *Generator) State() State {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.state
}

func (g *Generator) setState(s State) {
	g.stateMu.Lock()
	g.state = s
	g.stateMu.Unlock()
	g.logger.LogDebug("Generator state: %s", s)
}

// Generate builds the sitemap XML without writing it.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	xml, _, err := g.run(ctx, false)
	return xml, err
}

func (g *Generator) GenerateWithStats(ctx context.Context) (string, models.Stats, error) {
	return g.run(ctx, false)
}

// GenerateAndWrite checks the output path is writable, generates, then
// writes with a backup of the previous file.
func (g *Generator) GenerateAndWrite(ctx context.Context) (models.Stats, error) {
	_, stats, err := g.run(ctx, true)
	return stats, err
}

func (g *Generator) ErrorSummary() string {
	return g.errors.Summary()
}

// Errors and Warnings report the issues of the most recent run.
func (g *Generator) Errors() []*errhandler.SitemapError {
	return g.errors.Errors()
}

func (g *Generator) Warnings() []string {
	return g.errors.Warnings()
}

func (g *Generator) run(ctx context.Context, write bool) (string, models.Stats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errors.Clear()
	start := g.now()
	cfg := g.manager.Config()

	g.logger.LogInfo("Starting sitemap generation for %s", cfg.BaseURL)
	xml, stats, err := g.pipeline(ctx, cfg, write)

	end := g.now()
	stats.GenerationTimeMs = end.Sub(start).Milliseconds()
	stats.Timestamp = end.UTC().Format("2006-01-02T15:04:05.000Z07:00")

	if err != nil {
		g.setState(StateFailed)
	} else {
		g.setState(StateDone)
		g.logger.LogInfo("Sitemap generation completed: %d entries in %dms", stats.TotalEntries, stats.GenerationTimeMs)
		if summary := g.errors.Summary(); summary != errhandler.NoIssues {
			g.logger.LogInfo("Generation completed with issues: %s", summary)
		}
	}

	g.recordRun(ctx, cfg, stats, write && err == nil, err)
	return xml, stats, err
}

func (g *Generator) pipeline(ctx context.Context, cfg models.SitemapConfig, write bool) (string, models.Stats, error) {
	var stats models.Stats
	writer := NewFileWriter(cfg.BackupRetention, g.logger)
	writer.now = g.now

	if write && !writer.ValidateOutputPath(cfg.OutputPath) {
		err := errhandler.NewFileError(fmt.Sprintf("Cannot write to output path: %s", cfg.OutputPath), "sitemap generation and writing", nil)
		return "", stats, g.errors.HandleError(err, "sitemap generation and writing", true)
	}

	g.setState(StateCollecting)
	entries := NewEntryGenerator(cfg, g.blogMeta, g.errors)

	staticEntries := g.collectStatic(entries)
	if err := g.checkContext(ctx); err != nil {
		return "", stats, err
	}
	dynamicEntries := g.collectDynamic(entries)
	if err := g.checkContext(ctx); err != nil {
		return "", stats, err
	}
	blogEntries := g.collectBlog(entries)
	if err := g.checkContext(ctx); err != nil {
		return "", stats, err
	}

	stats.StaticRoutes = len(staticEntries)
	stats.DynamicRoutes = len(dynamicEntries)
	stats.BlogEntries = len(blogEntries)

	all, duplicates := dedupe(staticEntries, dynamicEntries, blogEntries)
	stats.Duplicates = duplicates
	g.logger.LogDebug("Collected %d sitemap entries (%d duplicates merged)", len(all), duplicates)

	g.setState(StateValidating)
	valid := g.validateEntries(all)
	if len(valid) == 0 {
		return "", stats, g.errors.HandleValidationError("No valid entries found for sitemap generation", "sitemap generation", true)
	}
	if len(valid) < len(all) {
		g.logger.LogDebug("Filtered out %d invalid entries", len(all)-len(valid))
	}

	g.setState(StateSerializing)
	xml := g.xml.GenerateSitemapXML(valid)
	if !ValidateXML(xml) {
		return "", stats, g.errors.HandleValidationError("Generated XML is invalid", "sitemap generation", true)
	}
	stats.TotalEntries = CountURLs(xml)

	if write {
		if err := g.checkContext(ctx); err != nil {
			return "", stats, err
		}
		g.setState(StateWriting)
		if err := writer.WriteSitemapWithBackup(xml, cfg.OutputPath); err != nil {
			return "", stats, g.errors.HandleError(err, "writing sitemap", true)
		}
	}

	return xml, stats, nil
}

func (g *Generator) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return g.errors.HandleError(err, "sitemap generation", true)
	}
	return nil
}

func (g *Generator) collectStatic(entries *EntryGenerator) []models.SitemapEntry {
	routes, err := g.routes.ScanStaticRoutes()
	if err != nil {
		g.errors.HandleError(err, "collecting static routes", false)
		return nil
	}

	metadata := make(map[string]models.RouteMetadata, len(routes))
	for _, route := range routes {
		metadata[route] = g.routes.RouteMetadata(route)
	}
	out := entries.CreateEntriesFromRoutes(routes, metadata)
	g.logger.LogDebug("Added %d static route entries", len(out))
	return out
}

func (g *Generator) collectDynamic(entries *EntryGenerator) []models.SitemapEntry {
	routes, err := g.routes.ScanDynamicRoutes()
	if err != nil {
		g.errors.HandleError(err, "collecting dynamic routes", false)
		return nil
	}

	metadata := make(map[string]models.RouteMetadata, len(routes))
	for _, route := range routes {
		metadata[route] = g.routes.Dynamic().DynamicRouteMetadata(route)
	}
	out := entries.CreateEntriesFromRoutes(routes, metadata)
	g.logger.LogDebug("Added %d dynamic route entries", len(out))
	return out
}

func (g *Generator) collectBlog(entries *EntryGenerator) []models.SitemapEntry {
	if !g.blogScanner.IsBlogSystemAvailable() {
		g.errors.AddWarning("Blog system not available, skipping blog entries")
		return nil
	}
	out := entries.CreateEntriesFromBlogs(g.blogMeta.AllEnhancedBlogMetadata())
	g.logger.LogDebug("Added %d blog entries", len(out))
	return out
}

// dedupe merges entries with the same URL. Later sources win, keeping the
// position of the first occurrence.
func dedupe(sources ...[]models.SitemapEntry) ([]models.SitemapEntry, int) {
	var out []models.SitemapEntry
	index := make(map[string]int)
	duplicates := 0
	for _, entries := range sources {
		for _, e := range entries {
			if i, ok := index[e.URL]; ok {
				out[i] = e
				duplicates++
				continue
			}
			index[e.URL] = len(out)
			out = append(out, e)
		}
	}
	return out, duplicates
}

func (g *Generator) validateEntries(entries []models.SitemapEntry) []models.SitemapEntry {
	valid := make([]models.SitemapEntry, 0, len(entries))
	for _, e := range entries {
		v := ValidateURL(e.URL)
		if !v.IsValid {
			g.errors.AddWarning(fmt.Sprintf("Invalid URL skipped: %s - %s", e.URL, strings.Join(v.Issues, ", ")))
			continue
		}
		valid = append(valid, e)
	}
	return valid
}

func (g *Generator) recordRun(ctx context.Context, cfg models.SitemapConfig, stats models.Stats, written bool, runErr error) {
	if g.history == nil {
		return
	}

	run := models.NewGenerationRun(cfg.BaseURL, cfg.OutputPath)
	run.CreatedAt = g.now().UTC()
	run.Status = models.RunCompleted
	if runErr != nil {
		run.Status = models.RunFailed
	}
	run.Written = written
	run.Stats = stats
	for _, e := range g.errors.Errors() {
		run.Errors = append(run.Errors, e.Error())
	}
	run.Warnings = g.errors.Warnings()

	if err := g.history.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		g.errors.AddWarning(fmt.Sprintf("Failed to record generation run: %v", err))
	}
}

// ValidateSetup reports configuration problems as issues and missing inputs
// as warnings.
func (g *Generator) ValidateSetup() models.SetupValidation {
	cfg := g.manager.Config()
	v := models.SetupValidation{Issues: []string{}, Warnings: []string{}}

	if cfg.BaseURL == "" {
		v.Issues = append(v.Issues, "Base URL is not configured")
	} else if !models.IsValidSitemapURL(cfg.BaseURL) {
		v.Issues = append(v.Issues, "Base URL is not a valid URL")
	}

	if !fsutil.Exists(g.paths.AppPath()) {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Page directory does not exist: %s", g.paths.AppPath()))
	} else if _, err := g.routes.ScanStaticRoutes(); err != nil {
		v.Warnings = append(v.Warnings, "Could not scan static routes: "+err.Error())
	}

	if !g.blogScanner.IsBlogSystemAvailable() {
		v.Warnings = append(v.Warnings, "Blog system is not available")
	}

	v.IsValid = len(v.Issues) == 0
	return v
}
