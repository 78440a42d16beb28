package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/romangod6/sitemap-gen/internal/crawler"
	"github.com/romangod6/sitemap-gen/internal/models"
	"golang.org/x/net/html"
)

func main() {
	samples := flag.Int("samples", 3, "number of pages to fetch and inspect")
	flag.Parse()

	source := "public/sitemap.xml"
	if flag.NArg() > 0 {
		source = flag.Arg(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sitemap, err := loadSitemap(ctx, source)
	if err != nil {
		log.Fatalf("Error loading sitemap: %v", err)
	}

	a := Analyze(sitemap)
	a.Print(os.Stdout)

	// Analyze a few pages to check what the crawlers will see
	for i := 0; i < *samples && i < len(sitemap.URLs); i++ {
		sampleURL := sitemap.URLs[i].Loc
		fmt.Printf("\n=== Analyzing URL %d/%d: %s ===\n", i+1, *samples, sampleURL)

		doc, body, err := fetchAndParseHTML(ctx, sampleURL)
		if err != nil {
			log.Printf("Error fetching page: %v", err)
			continue
		}

		meta, err := crawler.ExtractPageMeta(body)
		if err != nil {
			log.Printf("Error reading page metadata: %v", err)
			continue
		}
		fmt.Printf("Title:       %s\n", meta.Title)
		fmt.Printf("Description: %s\n", meta.Description)
		fmt.Printf("Canonical:   %s\n", meta.Canonical)
		if meta.Canonical != "" && meta.Canonical != sampleURL {
			fmt.Println("  canonical differs from the sitemap URL")
		}
		if meta.NoIndex {
			fmt.Println("  page is marked noindex but listed in the sitemap")
		}

		fmt.Println("\n--- Headings ---")
		for _, h := range Headings(doc) {
			fmt.Println(h)
		}
	}
}

func loadSitemap(ctx context.Context, source string) (*models.Sitemap, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return crawler.FetchSitemap(ctx, source)
	}
	return crawler.ParseSitemapFile(source)
}

func fetchAndParseHTML(ctx context.Context, url string) (*html.Node, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}
