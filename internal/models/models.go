package models

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPriority        = 0.5
	DefaultChangeFreq      = ChangeWeekly
	MaxURLs                = 50000
	MaxURLLength           = 2048
	DefaultBackupRetention = 5
	SitemapNamespace       = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

type RouteType string

const (
	RouteStatic  RouteType = "static"
	RouteDynamic RouteType = "dynamic"
	RouteBlog    RouteType = "blog"
)

// SitemapConfig holds the sitemap policy of a site.
type SitemapConfig struct {
	BaseURL         string                     `json:"baseUrl" mapstructure:"baseUrl" yaml:"baseUrl"`
	OutputPath      string                     `json:"outputPath" mapstructure:"outputPath" yaml:"outputPath"`
	ExcludePaths    []string                   `json:"excludePaths" mapstructure:"excludePaths" yaml:"excludePaths"`
	PriorityMap     map[string]float64         `json:"priorityMap" mapstructure:"priorityMap" yaml:"priorityMap"`
	ChangeFreqMap   map[string]ChangeFrequency `json:"changeFreqMap" mapstructure:"changeFreqMap" yaml:"changeFreqMap"`
	IncludeLastMod  bool                       `json:"includeLastMod" mapstructure:"includeLastMod" yaml:"includeLastMod"`
	BackupRetention int                        `json:"backupRetention" mapstructure:"backupRetention" yaml:"backupRetention"`
}

// Clone returns a deep copy so callers can't mutate the original maps.
func (c SitemapConfig) Clone() SitemapConfig {
	out := c
	out.ExcludePaths = append([]string(nil), c.ExcludePaths...)
	out.PriorityMap = make(map[string]float64, len(c.PriorityMap))
	for k, v := range c.PriorityMap {
		out.PriorityMap[k] = v
	}
	out.ChangeFreqMap = make(map[string]ChangeFrequency, len(c.ChangeFreqMap))
	for k, v := range c.ChangeFreqMap {
		out.ChangeFreqMap[k] = v
	}
	return out
}

// RouteSettings resolves the effective priority and change frequency of a
// route: exact key, then the longest key the route starts with, then the
// defaults.
func (c SitemapConfig) RouteSettings(route string) (float64, ChangeFrequency) {
	priority := DefaultPriority
	if p, ok := c.PriorityMap[route]; ok {
		priority = p
	} else if key, ok := longestPrefix(route, c.PriorityMap); ok {
		priority = c.PriorityMap[key]
	}

	freq := DefaultChangeFreq
	if f, ok := c.ChangeFreqMap[route]; ok && f != "" {
		freq = f
	} else if key, ok := longestPrefix(route, c.ChangeFreqMap); ok {
		freq = c.ChangeFreqMap[key]
	}
	return priority, freq
}

// IsExcluded reports whether route equals or starts with an excluded path.
func (c SitemapConfig) IsExcluded(route string) bool {
	for _, p := range c.ExcludePaths {
		if p == "" {
			continue
		}
		if route == p || strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func longestPrefix[V any](route string, m map[string]V) (string, bool) {
	best, found := "", false
	for key := range m {
		if key == "" || !strings.HasPrefix(route, key) {
			continue
		}
		if !found || len(key) > len(best) {
			best, found = key, true
		}
	}
	return best, found
}

// SitemapEntry is one <url> record of the generated document.
type SitemapEntry struct {
	URL        string          `json:"url"`
	LastMod    string          `json:"lastmod,omitempty"`
	ChangeFreq ChangeFrequency `json:"changefreq,omitempty"`
	Priority   *float64        `json:"priority,omitempty"`
}

// PriorityOr returns the entry priority or def when unset.
func (e SitemapEntry) PriorityOr(def float64) float64 {
	if e.Priority == nil {
		return def
	}
	return *e.Priority
}

// Priority returns a pointer to p, for building entries.
func Priority(p float64) *float64 {
	return &p
}

type RouteMetadata struct {
	Path         string          `json:"path"`
	Type         RouteType       `json:"type"`
	LastModified time.Time       `json:"lastModified"`
	Priority     float64         `json:"priority"`
	ChangeFreq   ChangeFrequency `json:"changeFreq"`
}

type BlogMetadata struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	PublishDate  time.Time `json:"publishDate"`
	LastModified time.Time `json:"lastModified"`
}

// BlogPost is what the blog content source exposes for one post.
type BlogPost struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
	SourceFile  string   `json:"-"`
}

// Stats describes a single generation run.
type Stats struct {
	TotalEntries     int    `json:"totalEntries"`
	StaticRoutes     int    `json:"staticRoutes"`
	DynamicRoutes    int    `json:"dynamicRoutes"`
	BlogEntries      int    `json:"blogEntries"`
	Duplicates       int    `json:"duplicates"`
	GenerationTimeMs int64  `json:"generationTime"`
	Timestamp        string `json:"timestamp"`
}

type SetupValidation struct {
	IsValid  bool     `json:"isValid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// IsValidSitemapURL reports whether raw is an absolute http(s) URL that fits
// the protocol length limit.
func IsValidSitemapURL(raw string) bool {
	if raw == "" || len(raw) > MaxURLLength {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
