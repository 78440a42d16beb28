// internal/crawler/parser.go
package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/sitemap-gen/internal/models"
	"golang.org/x/net/html"
)

// PageMeta holds what the verifier reads from a page.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	NoIndex     bool   `json:"noindex"`
}

// ParseSitemap decodes a <urlset> document.
func ParseSitemap(r io.Reader) (*models.Sitemap, error) {
	var sitemap models.Sitemap
	if err := xml.NewDecoder(r).Decode(&sitemap); err != nil {
		return nil, fmt.Errorf("error parsing sitemap: %w", err)
	}
	return &sitemap, nil
}

func ParseSitemapFile(path string) (*models.Sitemap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSitemap(f)
}

// FetchSitemap downloads and parses a remote sitemap.
func FetchSitemap(ctx context.Context, url string) (*models.Sitemap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	return ParseSitemap(resp.Body)
}

// ExtractPageMeta parses the raw HTML of a page and reads its title,
// description, canonical link and robots directives.
func ExtractPageMeta(body []byte) (*PageMeta, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	meta := &PageMeta{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if content, exists := doc.Find("meta[name='description']").First().Attr("content"); exists {
		meta.Description = strings.TrimSpace(content)
	}

	if href, exists := doc.Find("link[rel='canonical']").First().Attr("href"); exists {
		meta.Canonical = strings.TrimSpace(href)
	}

	doc.Find("meta[name='robots']").Each(func(i int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		for _, directive := range strings.Split(content, ",") {
			if strings.EqualFold(strings.TrimSpace(directive), "noindex") {
				meta.NoIndex = true
			}
		}
	})

	return meta, nil
}
