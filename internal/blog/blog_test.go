package blog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func writePost(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func staticSource(posts ...models.BlogPost) Source {
	return SourceFunc(func() ([]models.BlogPost, error) { return posts, nil })
}

func failingSource() Source {
	return SourceFunc(func() ([]models.BlogPost, error) { return nil, errors.New("content store offline") })
}

func TestMarkdownSource(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "2024-01-10-older-post.md", `---
title: Older Post
description: first
date: 2024-01-10
author: Jane
tags:
  - go
  - sitemap
featured: true
---
Body text.
`)
	writePost(t, dir, "newer-post.md", `---
title: "Newer Post"
date: "2024-05-01"
---
Hello.
`)
	writePost(t, dir, "untitled.md", "---\ndate: 2024-03-01\n---\n")
	writePost(t, dir, "broken.md", "---\ntitle: no end\n")
	writePost(t, dir, "notes.txt", "ignored")

	src := &MarkdownSource{Dir: dir, Logger: utils.Discard(), Now: clock}
	posts, err := src.AllPosts()
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "newer-post", posts[0].Slug)
	assert.Equal(t, "untitled", posts[1].Slug)
	assert.Equal(t, "Untitled", posts[1].Title)

	older := posts[2]
	assert.Equal(t, "older-post", older.Slug)
	assert.Equal(t, "Older Post", older.Title)
	assert.Equal(t, "first", older.Description)
	assert.Equal(t, "2024-01-10", older.Date)
	assert.Equal(t, "Jane", older.Author)
	assert.Equal(t, []string{"go", "sitemap"}, older.Tags)
	assert.True(t, older.Featured)
	assert.Equal(t, filepath.Join(dir, "2024-01-10-older-post.md"), older.SourceFile)
}

func TestMarkdownSourceMissingDir(t *testing.T) {
	src := NewMarkdownSource(filepath.Join(t.TempDir(), "missing"), utils.Discard())
	posts, err := src.AllPosts()
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestMarkdownSourceDefaultsDate(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "no-date.md", "---\ntitle: No Date\n---\n")

	posts, err := (&MarkdownSource{Dir: dir, Now: clock}).AllPosts()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "2024-06-15", posts[0].Date)
}

func TestSlugFromFilename(t *testing.T) {
	assert.Equal(t, "hello-world", SlugFromFilename("2024-01-02-hello-world.md"))
	assert.Equal(t, "hello-world", SlugFromFilename("hello-world.md"))
	assert.Equal(t, "2024-guide", SlugFromFilename("2024-guide.md"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-01-02T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.UTC().Hour())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestScanner(t *testing.T) {
	s := NewScanner(staticSource(
		models.BlogPost{Slug: "a", Title: "A", Date: "2024-06-01"},
		models.BlogPost{Slug: "b", Title: "B", Date: "2024-05-01"},
	), utils.Discard()).WithClock(clock)

	assert.Equal(t, []string{"a", "b"}, s.AllBlogSlugs())
	assert.Equal(t, []string{"/blog/a", "/blog/b"}, s.BlogURLs())
	assert.True(t, s.IsBlogSystemAvailable())

	md := s.BlogMetadata("a")
	assert.Equal(t, "A", md.Title)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), md.PublishDate)
	assert.Equal(t, md.PublishDate, md.LastModified)

	missing := s.BlogMetadata("zzz")
	assert.Equal(t, models.BlogMetadata{Slug: "zzz", Title: "zzz", PublishDate: now, LastModified: now}, missing)

	entries := s.AllBlogEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/blog/b", entries[1].URL)
	assert.Equal(t, "B", entries[1].Metadata.Title)

	urls, err := s.ResolveURLs()
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestScannerFailingSource(t *testing.T) {
	s := NewScanner(failingSource(), utils.Discard()).WithClock(clock)

	assert.Empty(t, s.AllBlogSlugs())
	assert.Empty(t, s.BlogURLs())
	assert.Empty(t, s.AllBlogEntries())
	assert.False(t, s.IsBlogSystemAvailable())
	assert.Equal(t, "x", s.BlogMetadata("x").Title)
}

func TestEnhancedBlogMetadata(t *testing.T) {
	dir := t.TempDir()
	mtime := now.Add(-2 * day)
	path := filepath.Join(dir, "2024-06-01-with-file.md")

	h := NewMetadataHandler(staticSource(
		models.BlogPost{Slug: "with-file", Title: "With File", Date: "2024-06-01", SourceFile: path},
		models.BlogPost{Slug: "no-file", Title: "No File", Date: "2024-05-01"},
	), MetadataConfig{Dir: dir, Stater: fsutil.Fixed{path: mtime}, Now: clock})

	md := h.EnhancedBlogMetadata("with-file")
	assert.Equal(t, mtime, md.LastModified)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), md.PublishDate)

	md = h.EnhancedBlogMetadata("no-file")
	assert.Equal(t, md.PublishDate, md.LastModified)

	md = h.EnhancedBlogMetadata("getting-started-guide")
	assert.Equal(t, "Getting Started Guide", md.Title)
	assert.Equal(t, now, md.PublishDate)

	all := h.AllEnhancedBlogMetadata()
	require.Len(t, all, 2)
	assert.Equal(t, "with-file", all[0].Slug)
}

func TestEnhancedBlogMetadataFindsFileBySlug(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "2024-02-01-found-me.md", "---\ntitle: x\n---\n")
	mtime := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	h := NewMetadataHandler(staticSource(
		models.BlogPost{Slug: "found-me", Title: "Found", Date: "2024-02-01"},
	), MetadataConfig{Dir: dir, Now: clock})

	assert.True(t, h.EnhancedBlogMetadata("found-me").LastModified.Equal(mtime))
}

func TestEnhancedBlogMetadataFailingSource(t *testing.T) {
	h := NewMetadataHandler(failingSource(), MetadataConfig{Now: clock})

	md := h.EnhancedBlogMetadata("hello-world")
	assert.Equal(t, "Hello World", md.Title)
	assert.True(t, ValidateBlogMetadata(md))
	assert.Empty(t, h.AllEnhancedBlogMetadata())
}

func TestPostPriorityAndChangeFreq(t *testing.T) {
	h := NewMetadataHandler(nil, MetadataConfig{Now: clock})

	tests := []struct {
		name     string
		age      time.Duration
		priority float64
		freq     models.ChangeFrequency
	}{
		{"two days", 2 * day, 0.8, models.ChangeWeekly},
		{"two weeks", 14 * day, 0.7, models.ChangeMonthly},
		{"forty five days", 45 * day, 0.6, models.ChangeYearly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := now.Add(-tt.age)
			md := models.BlogMetadata{Slug: "p", Title: "P", PublishDate: at, LastModified: at}
			assert.Equal(t, tt.priority, h.PostPriority(md))
			assert.Equal(t, tt.freq, h.PostChangeFreq(md))
		})
	}
}

func TestFormatDateForSitemap(t *testing.T) {
	loc := time.FixedZone("east", 10*3600)
	assert.Equal(t, "2024-01-01", FormatDateForSitemap(time.Date(2024, 1, 2, 5, 0, 0, 0, loc)))
}

func TestValidateBlogMetadata(t *testing.T) {
	ok := models.BlogMetadata{Slug: "s", Title: "T", PublishDate: now, LastModified: now}
	assert.True(t, ValidateBlogMetadata(ok))

	noTitle := ok
	noTitle.Title = ""
	assert.False(t, ValidateBlogMetadata(noTitle))

	noDate := ok
	noDate.PublishDate = time.Time{}
	assert.False(t, ValidateBlogMetadata(noDate))
}
