// internal/models/sitemap.go
package models

import "encoding/xml"

// Sitemap represents the structure of an XML sitemap.
type Sitemap struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr,omitempty"`
	URLs    []URL    `xml:"url"`
}

// URL represents a single URL entry in the sitemap.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapIndex represents a sitemap index document.
type SitemapIndex struct {
	XMLName  xml.Name    `xml:"sitemapindex"`
	XMLNS    string      `xml:"xmlns,attr,omitempty"`
	Sitemaps []IndexItem `xml:"sitemap"`
}

type IndexItem struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}
