package blog

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

const day = 24 * time.Hour

type MetadataConfig struct {
	Dir    string
	Stater fsutil.Stater
	Logger *utils.Logger
	Now    func() time.Time
}

// MetadataHandler enriches blog metadata with the mtime of the backing
// markdown file and derives sitemap hints from post age.
type MetadataHandler struct {
	source Source
	config MetadataConfig
}

func NewMetadataHandler(source Source, config MetadataConfig) *MetadataHandler {
	if config.Stater == nil {
		config.Stater = fsutil.OS{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &MetadataHandler{source: source, config: config}
}

// EnhancedBlogMetadata returns the metadata of slug with the file mtime as
// last modified, falling back to the publish date. Unknown posts get a
// synthesized record.
func (h *MetadataHandler) EnhancedBlogMetadata(slug string) models.BlogMetadata {
	posts, err := h.allPosts()
	if err != nil {
		h.config.Logger.LogError("Error getting enhanced blog metadata for %s: %v", slug, err)
		return h.defaultMetadata(slug)
	}
	for _, p := range posts {
		if p.Slug == slug {
			return h.enhance(p)
		}
	}
	h.config.Logger.LogWarn("Blog post not found: %s", slug)
	return h.defaultMetadata(slug)
}

func (h *MetadataHandler) AllEnhancedBlogMetadata() []models.BlogMetadata {
	posts, err := h.allPosts()
	if err != nil {
		h.config.Logger.LogError("Error getting all enhanced blog metadata: %v", err)
		return nil
	}
	out := make([]models.BlogMetadata, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.enhance(p))
	}
	return out
}

func (h *MetadataHandler) allPosts() ([]models.BlogPost, error) {
	if h.source == nil {
		return nil, nil
	}
	return h.source.AllPosts()
}

func (h *MetadataHandler) enhance(p models.BlogPost) models.BlogMetadata {
	md := metadataFromPost(p)
	if md.PublishDate.IsZero() {
		h.config.Logger.LogWarn("Blog post %s has an invalid date %q", p.Slug, p.Date)
	}

	path := p.SourceFile
	if path == "" {
		path = h.markdownFilePath(p.Slug)
	}
	if mtime, ok := h.config.Stater.ModTime(path); ok {
		md.LastModified = mtime
	} else {
		h.config.Logger.LogDebug("Could not stat blog file %s", path)
	}
	return md
}

// markdownFilePath finds the file whose name contains slug or normalizes to
// it, defaulting to <slug>.md.
func (h *MetadataHandler) markdownFilePath(slug string) string {
	fallback := filepath.Join(h.config.Dir, slug+markdownExt)

	entries, err := os.ReadDir(h.config.Dir)
	if err != nil {
		return fallback
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, markdownExt) {
			continue
		}
		if strings.Contains(name, slug) || normalizeSlug(name) == slug {
			return filepath.Join(h.config.Dir, name)
		}
	}
	return fallback
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeSlug(filename string) string {
	name := strings.ToLower(strings.TrimSuffix(filename, markdownExt))
	return strings.Trim(nonSlugChars.ReplaceAllString(name, "-"), "-")
}

func (h *MetadataHandler) defaultMetadata(slug string) models.BlogMetadata {
	now := h.config.Now()
	return models.BlogMetadata{
		Slug:         slug,
		Title:        cases.Title(language.Und, cases.NoLower).String(strings.ReplaceAll(slug, "-", " ")),
		PublishDate:  now,
		LastModified: now,
	}
}

func (h *MetadataHandler) daysSince(t time.Time) float64 {
	return float64(h.config.Now().Sub(t)) / float64(day)
}

// PostPriority favours recent posts: 0.8 under a week old, 0.7 under a month,
// 0.6 after.
func (h *MetadataHandler) PostPriority(md models.BlogMetadata) float64 {
	switch age := h.daysSince(md.PublishDate); {
	case age < 7:
		return 0.8
	case age < 30:
		return 0.7
	default:
		return 0.6
	}
}

func (h *MetadataHandler) PostChangeFreq(md models.BlogMetadata) models.ChangeFrequency {
	switch age := h.daysSince(md.LastModified); {
	case age < 7:
		return models.ChangeWeekly
	case age < 30:
		return models.ChangeMonthly
	default:
		return models.ChangeYearly
	}
}

// FormatDateForSitemap renders the UTC date as YYYY-MM-DD.
func FormatDateForSitemap(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func ValidateBlogMetadata(md models.BlogMetadata) bool {
	return md.Slug != "" && md.Title != "" && !md.PublishDate.IsZero() && !md.LastModified.IsZero()
}
