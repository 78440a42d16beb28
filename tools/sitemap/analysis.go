package main

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/romangod6/sitemap-gen/internal/models"
	"golang.org/x/net/html"
)

// Analysis is the breakdown of a sitemap's entries.
type Analysis struct {
	Total        int
	Sections     map[string]int
	ChangeFreqs  map[string]int
	Priorities   map[string]int
	WithLastMod  int
	InvalidURLs  []string
	DuplicateLoc []string
}

// Analyze groups the entries by top level section ("/" for the home page),
// change frequency and priority.
func Analyze(sitemap *models.Sitemap) *Analysis {
	a := &Analysis{
		Total:       len(sitemap.URLs),
		Sections:    map[string]int{},
		ChangeFreqs: map[string]int{},
		Priorities:  map[string]int{},
	}

	seen := map[string]bool{}
	for _, u := range sitemap.URLs {
		if seen[u.Loc] {
			a.DuplicateLoc = append(a.DuplicateLoc, u.Loc)
		}
		seen[u.Loc] = true

		if !models.IsValidSitemapURL(u.Loc) {
			a.InvalidURLs = append(a.InvalidURLs, u.Loc)
		} else {
			a.Sections[section(u.Loc)]++
		}

		a.ChangeFreqs[valueOr(u.ChangeFreq, "(none)")]++
		a.Priorities[valueOr(u.Priority, "(none)")]++
		if u.LastMod != "" {
			a.WithLastMod++
		}
	}
	return a
}

func section(loc string) string {
	u, err := url.Parse(loc)
	if err != nil {
		return "/"
	}
	first, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	return "/" + first
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (a *Analysis) Print(w io.Writer) {
	fmt.Fprintf(w, "Total URLs found: %d\n", a.Total)
	fmt.Fprintf(w, "With lastmod:     %d\n", a.WithLastMod)

	printCounts(w, "Sections", a.Sections)
	printCounts(w, "Change frequencies", a.ChangeFreqs)
	printCounts(w, "Priorities", a.Priorities)

	if len(a.InvalidURLs) > 0 {
		fmt.Fprintf(w, "\n--- Invalid URLs (%d) ---\n", len(a.InvalidURLs))
		for _, u := range a.InvalidURLs {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
	if len(a.DuplicateLoc) > 0 {
		fmt.Fprintf(w, "\n--- Duplicate URLs (%d) ---\n", len(a.DuplicateLoc))
		for _, u := range a.DuplicateLoc {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}

// printCounts lists the largest groups first.
func printCounts(w io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "\n--- %s ---\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}

// Headings lists the h1-h3 elements of a page, indented by level.
func Headings(n *html.Node) []string {
	var out []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3":
				level := int(n.Data[1] - '0')
				if text := getNodeText(n); text != "" {
					out = append(out, strings.Repeat("  ", level-1)+n.Data+": "+text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return out
}

func getNodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := getNodeText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
