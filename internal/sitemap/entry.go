package sitemap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/romangod6/sitemap-gen/internal/blog"
	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
)

// BlogHeuristics derives sitemap hints for a blog post.
type BlogHeuristics interface {
	PostPriority(md models.BlogMetadata) float64
	PostChangeFreq(md models.BlogMetadata) models.ChangeFrequency
}

// EntryGenerator turns routes and blog posts into sitemap entries under one
// configuration snapshot.
type EntryGenerator struct {
	config   models.SitemapConfig
	blog     BlogHeuristics
	reporter errhandler.Reporter
}

// NewEntryGenerator creates a generator. Per-item failures are reported to
// reporter as non-critical errors; nil discards them.
func NewEntryGenerator(config models.SitemapConfig, heuristics BlogHeuristics, reporter errhandler.Reporter) *EntryGenerator {
	if reporter == nil {
		reporter = errhandler.NewHandler(nil)
	}
	return &EntryGenerator{config: config, blog: heuristics, reporter: reporter}
}

// BuildURL joins the base URL and route with exactly one slash.
func (g *EntryGenerator) BuildURL(route string) string {
	return strings.TrimSuffix(g.config.BaseURL, "/") + normalizeRoute(route)
}

func normalizeRoute(route string) string {
	if !strings.HasPrefix(route, "/") {
		return "/" + route
	}
	return route
}

// CreateEntryFromRoute builds the entry of route using the configured route
// policy. md may be nil.
func (g *EntryGenerator) CreateEntryFromRoute(route string, md *models.RouteMetadata) (models.SitemapEntry, error) {
	route = normalizeRoute(route)
	url := g.BuildURL(route)
	if !models.IsValidSitemapURL(url) {
		return models.SitemapEntry{}, errhandler.NewValidationError(fmt.Sprintf("Invalid URL generated: %s", url), "route "+route, nil)
	}

	priority, freq := g.config.RouteSettings(route)
	entry := models.SitemapEntry{
		URL:        url,
		ChangeFreq: freq,
		Priority:   models.Priority(priority),
	}
	if g.config.IncludeLastMod && md != nil && !md.LastModified.IsZero() {
		entry.LastMod = blog.FormatDateForSitemap(md.LastModified)
	}
	return entry, nil
}

// CreateEntryFromBlog builds the entry of /blog/<slug> from the post age
// heuristics.
func (g *EntryGenerator) CreateEntryFromBlog(md models.BlogMetadata) (models.SitemapEntry, error) {
	route := blog.URLPrefix + md.Slug
	if !blog.ValidateBlogMetadata(md) {
		return models.SitemapEntry{}, errhandler.NewValidationError(fmt.Sprintf("Invalid blog metadata for %q", md.Slug), "blog "+md.Slug, nil)
	}

	url := g.BuildURL(route)
	if !models.IsValidSitemapURL(url) {
		return models.SitemapEntry{}, errhandler.NewValidationError(fmt.Sprintf("Invalid blog URL generated: %s", url), "blog "+md.Slug, nil)
	}

	var (
		priority float64
		freq     models.ChangeFrequency
	)
	if g.blog != nil {
		priority, freq = g.blog.PostPriority(md), g.blog.PostChangeFreq(md)
	} else {
		priority, freq = g.config.RouteSettings(route)
	}

	entry := models.SitemapEntry{
		URL:        url,
		ChangeFreq: freq,
		Priority:   models.Priority(priority),
	}
	if g.config.IncludeLastMod {
		entry.LastMod = blog.FormatDateForSitemap(md.LastModified)
	}
	return entry, nil
}

// CreateEntriesFromRoutes skips excluded routes and routes that fail to
// convert.
func (g *EntryGenerator) CreateEntriesFromRoutes(routes []string, metadata map[string]models.RouteMetadata) []models.SitemapEntry {
	entries := make([]models.SitemapEntry, 0, len(routes))
	for _, route := range routes {
		if g.ShouldExclude(route) {
			continue
		}

		var md *models.RouteMetadata
		if m, ok := metadata[route]; ok {
			md = &m
		}
		entry, err := g.CreateEntryFromRoute(route, md)
		if err != nil {
			g.reporter.HandleError(err, fmt.Sprintf("Failed to create entry for route %s", route), false)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (g *EntryGenerator) CreateEntriesFromBlogs(posts []models.BlogMetadata) []models.SitemapEntry {
	entries := make([]models.SitemapEntry, 0, len(posts))
	for _, md := range posts {
		if g.ShouldExclude(blog.URLPrefix + md.Slug) {
			continue
		}
		entry, err := g.CreateEntryFromBlog(md)
		if err != nil {
			g.reporter.HandleError(err, fmt.Sprintf("Failed to create entry for blog %s", md.Slug), false)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// ShouldExclude reports whether route equals or starts with an excluded path.
func (g *EntryGenerator) ShouldExclude(route string) bool {
	return g.config.IsExcluded(route)
}

var lastModPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateEntry checks an entry against the sitemap protocol limits.
func ValidateEntry(e models.SitemapEntry) error {
	if e.URL == "" {
		return fmt.Errorf("missing URL")
	}
	if len(e.URL) > models.MaxURLLength {
		return fmt.Errorf("URL too long: %d characters", len(e.URL))
	}
	if !models.IsValidSitemapURL(e.URL) {
		return fmt.Errorf("malformed URL %q", e.URL)
	}
	if e.Priority != nil {
		if err := models.ValidatePriority(*e.Priority); err != nil {
			return err
		}
	}
	if e.ChangeFreq != "" && !e.ChangeFreq.IsValid() {
		return fmt.Errorf("invalid changefreq %q", e.ChangeFreq)
	}
	if e.LastMod != "" && !lastModPattern.MatchString(e.LastMod) {
		return fmt.Errorf("lastmod %q must be in YYYY-MM-DD format", e.LastMod)
	}
	return nil
}
