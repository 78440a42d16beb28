package blog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

const markdownExt = ".md"

// Source lists the published blog posts.
type Source interface {
	AllPosts() ([]models.BlogPost, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]models.BlogPost, error)

func (f SourceFunc) AllPosts() ([]models.BlogPost, error) {
	return f()
}

// MarkdownSource reads posts from markdown files with YAML frontmatter.
type MarkdownSource struct {
	Dir    string
	Logger *utils.Logger
	Now    func() time.Time
}

func NewMarkdownSource(dir string, logger *utils.Logger) *MarkdownSource {
	return &MarkdownSource{Dir: dir, Logger: logger, Now: time.Now}
}

// AllPosts returns the posts newest first. A missing directory has no posts;
// files that fail to parse are skipped.
func (s *MarkdownSource) AllPosts() ([]models.BlogPost, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.Logger.LogWarn("Blog content directory does not exist: %s", s.Dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading blog dir %s: %w", s.Dir, err)
	}

	var posts []models.BlogPost
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), markdownExt) {
			continue
		}
		post, err := s.parseFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			s.Logger.LogWarn("Skipping blog post %s: %v", entry.Name(), err)
			continue
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		a, _ := ParseDate(posts[i].Date)
		b, _ := ParseDate(posts[j].Date)
		return a.After(b)
	})
	return posts, nil
}

func (s *MarkdownSource) parseFile(path string) (models.BlogPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.BlogPost{}, err
	}

	frontmatter, _, err := splitFrontmatter(string(data))
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("splitting frontmatter: %w", err)
	}

	var fields map[string]interface{}
	if err := yaml.Unmarshal([]byte(frontmatter), &fields); err != nil {
		return models.BlogPost{}, fmt.Errorf("parsing frontmatter YAML: %w", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	post := models.BlogPost{
		Slug:        SlugFromFilename(filepath.Base(path)),
		Title:       stringField(fields, "title", "Untitled"),
		Description: stringField(fields, "description", ""),
		Date:        dateField(fields, "date", now()),
		Author:      stringField(fields, "author", ""),
		Tags:        []string{},
		SourceFile:  path,
	}
	if tags, ok := fields["tags"].([]interface{}); ok {
		for _, t := range tags {
			post.Tags = append(post.Tags, fmt.Sprint(t))
		}
	}
	if featured, ok := fields["featured"].(bool); ok {
		post.Featured = featured
	}
	return post, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from the body.
func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}

	rest := content[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", content, fmt.Errorf("no closing --- found for frontmatter")
	}

	fm := strings.TrimSpace(rest[:idx])
	body := strings.TrimSpace(rest[idx+4:])
	return fm, body, nil
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-(.+)$`)

// SlugFromFilename drops the extension and a leading YYYY-MM-DD- date.
func SlugFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, markdownExt)
	if m := datePrefix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats used in post frontmatter. Dates without
// a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func stringField(fields map[string]interface{}, key, def string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

// dateField reads a date that YAML may have decoded as a timestamp or left as
// a string.
func dateField(fields map[string]interface{}, key string, now time.Time) string {
	switch v := fields[key].(type) {
	case time.Time:
		return v.UTC().Format("2006-01-02")
	case string:
		if v != "" {
			return v
		}
	}
	return now.UTC().Format("2006-01-02")
}
