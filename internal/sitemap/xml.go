package sitemap

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	urlsetOpen   = fmt.Sprintf(`<urlset xmlns="%s">`, models.SitemapNamespace)
	urlsetClose  = `</urlset>`
	indexOpen    = fmt.Sprintf(`<sitemapindex xmlns="%s">`, models.SitemapNamespace)
	indexClose   = `</sitemapindex>`
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	openTagRe    = regexp.MustCompile(`<[^/?!][^>]*>`)
	closeTagRe   = regexp.MustCompile(`</[^>]*>`)
	selfClosedRe = regexp.MustCompile(`<[^>]*/>`)
)

// XMLGenerator serializes entries into sitemap documents.
type XMLGenerator struct {
	reporter errhandler.Reporter
	now      func() time.Time
}

func NewXMLGenerator(reporter errhandler.Reporter) *XMLGenerator {
	if reporter == nil {
		reporter = errhandler.NewHandler(nil)
	}
	return &XMLGenerator{reporter: reporter, now: time.Now}
}

// GenerateSitemapXML drops invalid entries, keeps at most MaxURLs, sorts by
// priority and URL, and renders a <urlset> document.
func (x *XMLGenerator) GenerateSitemapXML(entries []models.SitemapEntry) string {
	valid := make([]models.SitemapEntry, 0, len(entries))
	for _, e := range entries {
		if err := ValidateEntry(e); err != nil {
			x.reporter.AddWarning(fmt.Sprintf("Invalid entry skipped: %s (%v)", e.URL, err))
			continue
		}
		valid = append(valid, e)
	}

	if len(valid) == 0 {
		x.reporter.AddWarning("No valid entries found for sitemap generation")
	}
	if len(valid) > models.MaxURLs {
		x.reporter.AddWarning(fmt.Sprintf("Sitemap truncated to %d URLs (had %d)", models.MaxURLs, len(valid)))
		valid = valid[:models.MaxURLs]
	}

	SortEntries(valid)

	lines := []string{xmlHeader, urlsetOpen}
	for _, e := range valid {
		lines = append(lines, urlBlock(e))
	}
	lines = append(lines, urlsetClose)
	return strings.Join(lines, "\n")
}

func urlBlock(e models.SitemapEntry) string {
	lines := []string{
		"  <url>",
		"    <loc>" + EscapeXML(e.URL) + "</loc>",
	}
	if e.LastMod != "" {
		lines = append(lines, "    <lastmod>"+e.LastMod+"</lastmod>")
	}
	if e.ChangeFreq != "" {
		lines = append(lines, "    <changefreq>"+string(e.ChangeFreq)+"</changefreq>")
	}
	if e.Priority != nil {
		lines = append(lines, "    <priority>"+FormatPriority(*e.Priority)+"</priority>")
	}
	lines = append(lines, "  </url>")
	return strings.Join(lines, "\n")
}

// GenerateSitemapIndexXML renders a <sitemapindex> pointing at urls, each
// stamped with today's date.
func (x *XMLGenerator) GenerateSitemapIndexXML(urls []string) string {
	today := x.now().UTC().Format("2006-01-02")

	lines := []string{xmlHeader, indexOpen}
	for _, u := range urls {
		lines = append(lines,
			"  <sitemap>",
			"    <loc>"+EscapeXML(u)+"</loc>",
			"    <lastmod>"+today+"</lastmod>",
			"  </sitemap>",
		)
	}
	lines = append(lines, indexClose)
	return strings.Join(lines, "\n")
}

// SortEntries orders by priority descending, unset counting as the default,
// then by URL.
func SortEntries(entries []models.SitemapEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi := entries[i].PriorityOr(models.DefaultPriority)
		pj := entries[j].PriorityOr(models.DefaultPriority)
		if pi != pj {
			return pi > pj
		}
		return entries[i].URL < entries[j].URL
	})
}

// FormatPriority renders p with one decimal place.
func FormatPriority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// ValidateXML is a structural check of a generated sitemap: declaration,
// namespaced urlset, closing tag and balanced element tags. It does not parse
// the document.
func ValidateXML(xml string) bool {
	if !strings.Contains(xml, xmlHeader) {
		return false
	}
	if !strings.Contains(xml, urlsetOpen) || !strings.Contains(xml, urlsetClose) {
		return false
	}

	open := len(openTagRe.FindAllString(xml, -1))
	closed := len(closeTagRe.FindAllString(xml, -1))
	selfClosed := len(selfClosedRe.FindAllString(xml, -1))
	return open == closed+selfClosed
}
