package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
)

// Validate checks the sitemap policy and reports every problem it finds as a
// single configuration error.
func Validate(c *models.SitemapConfig) error {
	var problems []string

	if err := validateBaseURL(c.BaseURL); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		problems = append(problems, "outputPath must not be empty")
	}
	for _, route := range sortedKeys(c.PriorityMap) {
		if err := models.ValidatePriority(c.PriorityMap[route]); err != nil {
			problems = append(problems, fmt.Sprintf("priorityMap[%s]: %v", route, err))
		}
	}
	for _, route := range sortedKeys(c.ChangeFreqMap) {
		if _, err := models.ParseChangeFrequency(string(c.ChangeFreqMap[route])); err != nil {
			problems = append(problems, fmt.Sprintf("changeFreqMap[%s]: %v", route, err))
		}
	}
	if c.BackupRetention < 0 {
		problems = append(problems, "backupRetention must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	msg := "Invalid configuration: " + strings.Join(problems, "; ")
	return errhandler.NewConfigError(msg, "config validation", nil)
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("baseUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("baseUrl %q is not a valid URL: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("baseUrl %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("baseUrl %q has no host", raw)
	}
	return nil
}
