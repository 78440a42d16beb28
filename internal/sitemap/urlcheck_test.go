package sitemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url    string
		issues []string
	}{
		{"https://example.com/blog/post", nil},
		{"http://example.com", nil},
		{"not-a-url", []string{"Malformed URL"}},
		{"ftp://example.com/file", []string{"Invalid protocol: ftp:", "URL contains double slashes"}},
		{"https://example.com/a b", []string{"URL contains spaces"}},
		{"https://example.com//double", []string{"URL contains double slashes"}},
		{"https://example.com/" + strings.Repeat("a", 2100), []string{"URL too long"}},
	}
	for _, tt := range tests {
		t.Run(tt.url[:min(len(tt.url), 40)], func(t *testing.T) {
			r := ValidateURL(tt.url)
			assert.Equal(t, len(tt.issues) == 0, r.IsValid)
			assert.Len(t, r.Issues, len(tt.issues))
			for i, want := range tt.issues {
				assert.Contains(t, r.Issues[i], want)
			}
		})
	}
}

func TestValidateURLs(t *testing.T) {
	batch := ValidateURLs([]string{"https://a.com/", "bad", "https://b.com/x"})
	assert.Equal(t, 3, batch.TotalURLs)
	assert.Equal(t, 2, batch.ValidURLs)
	assert.Equal(t, 1, batch.InvalidURLs)
	assert.False(t, batch.Results[1].Result.IsValid)
	assert.Equal(t, "bad", batch.Results[1].URL)
}
