package blog

import (
	"time"

	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

// URLPrefix is the route under which posts are served.
const URLPrefix = "/blog/"

// Entry pairs a blog route with its metadata.
type Entry struct {
	URL      string              `json:"url"`
	Metadata models.BlogMetadata `json:"metadata"`
}

// Scanner exposes the blog posts of a Source to the sitemap. Source failures
// never propagate: they are logged and yield empty results.
type Scanner struct {
	source Source
	logger *utils.Logger
	now    func() time.Time
}

func NewScanner(source Source, logger *utils.Logger) *Scanner {
	return &Scanner{source: source, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for synthesized records.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

func (s *Scanner) posts() ([]models.BlogPost, error) {
	if s.source == nil {
		return nil, nil
	}
	return s.source.AllPosts()
}

func (s *Scanner) AllBlogSlugs() []string {
	posts, err := s.posts()
	if err != nil {
		s.logger.LogError("Error getting blog slugs: %v", err)
		return nil
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

// BlogMetadata returns the record for slug, or a synthesized one using the
// slug as title and the current time when the post is unknown.
func (s *Scanner) BlogMetadata(slug string) models.BlogMetadata {
	posts, err := s.posts()
	if err != nil {
		s.logger.LogError("Error getting blog metadata for %s: %v", slug, err)
	}
	for _, p := range posts {
		if p.Slug == slug {
			return metadataFromPost(p)
		}
	}
	if err == nil {
		s.logger.LogWarn("Blog post not found: %s", slug)
	}
	now := s.now()
	return models.BlogMetadata{Slug: slug, Title: slug, PublishDate: now, LastModified: now}
}

func (s *Scanner) BlogURLs() []string {
	slugs := s.AllBlogSlugs()
	urls := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		urls = append(urls, URLPrefix+slug)
	}
	return urls
}

// ResolveURLs is BlogURLs shaped for a dynamic route resolver.
func (s *Scanner) ResolveURLs() ([]string, error) {
	return s.BlogURLs(), nil
}

func (s *Scanner) AllBlogEntries() []Entry {
	posts, err := s.posts()
	if err != nil {
		s.logger.LogError("Error getting all blog entries: %v", err)
		return nil
	}
	entries := make([]Entry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, Entry{URL: URLPrefix + p.Slug, Metadata: metadataFromPost(p)})
	}
	return entries
}

func (s *Scanner) IsBlogSystemAvailable() bool {
	if s.source == nil {
		return false
	}
	if _, err := s.source.AllPosts(); err != nil {
		s.logger.LogWarn("Blog system not available: %v", err)
		return false
	}
	return true
}

// metadataFromPost uses the publish date for both dates. An unparseable date
// leaves them zero.
func metadataFromPost(p models.BlogPost) models.BlogMetadata {
	published, _ := ParseDate(p.Date)
	return models.BlogMetadata{
		Slug:         p.Slug,
		Title:        p.Title,
		PublishDate:  published,
		LastModified: published,
	}
}
