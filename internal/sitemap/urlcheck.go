package sitemap

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/romangod6/sitemap-gen/internal/models"
)

type URLValidation struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

type URLResult struct {
	URL    string        `json:"url"`
	Result URLValidation `json:"result"`
}

type BatchValidation struct {
	TotalURLs   int         `json:"totalUrls"`
	ValidURLs   int         `json:"validUrls"`
	InvalidURLs int         `json:"invalidUrls"`
	Results     []URLResult `json:"results"`
}

// ValidateURL lists everything wrong with raw as a sitemap location.
func ValidateURL(raw string) URLValidation {
	var issues []string

	u, err := url.Parse(raw)
	switch {
	case err != nil:
		issues = append(issues, fmt.Sprintf("Malformed URL: %v", err))
	case u.Scheme == "" || u.Host == "":
		issues = append(issues, "Malformed URL: not an absolute URL")
	default:
		if u.Scheme != "http" && u.Scheme != "https" {
			issues = append(issues, fmt.Sprintf("Invalid protocol: %s:", u.Scheme))
		}
		if len(raw) > models.MaxURLLength {
			issues = append(issues, fmt.Sprintf("URL too long: %d characters (max: %d)", len(raw), models.MaxURLLength))
		}
		if strings.Contains(raw, " ") {
			issues = append(issues, "URL contains spaces")
		}
		if strings.Contains(stripScheme(raw), "//") {
			issues = append(issues, "URL contains double slashes")
		}
	}

	return URLValidation{IsValid: len(issues) == 0, Issues: issues}
}

func stripScheme(raw string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(raw, prefix) {
			return raw[len(prefix):]
		}
	}
	return raw
}

func ValidateURLs(urls []string) BatchValidation {
	batch := BatchValidation{TotalURLs: len(urls), Results: make([]URLResult, 0, len(urls))}
	for _, u := range urls {
		r := ValidateURL(u)
		if r.IsValid {
			batch.ValidURLs++
		}
		batch.Results = append(batch.Results, URLResult{URL: u, Result: r})
	}
	batch.InvalidURLs = batch.TotalURLs - batch.ValidURLs
	return batch
}
