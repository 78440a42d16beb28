package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

const urlKey = "sitemap-url"

type VerifierConfig struct {
	UserAgent   string
	Parallelism int
	Timeout     time.Duration
}

// Result is the outcome of visiting one sitemap URL.
type Result struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"statusCode"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Meta       *PageMeta `json:"meta,omitempty"`
}

type Report struct {
	Checked int      `json:"checked"`
	OK      int      `json:"ok"`
	Broken  int      `json:"broken"`
	NoIndex int      `json:"noindex"`
	Results []Result `json:"results"`
}

// Verifier visits the URLs of a generated sitemap and reports the ones that
// don't answer with a successful page.
type Verifier struct {
	config VerifierConfig
	logger *utils.Logger
}

func NewVerifier(config VerifierConfig, logger *utils.Logger) *Verifier {
	if config.Parallelism < 1 {
		config.Parallelism = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Verifier{config: config, logger: logger}
}

func (v *Verifier) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(v.config.UserAgent),
		colly.Async(true),
		// urls are de-duplicated by Verify; redirects may land on a visited page
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(v.config.Timeout)

	// Set reasonable limits
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: v.config.Parallelism,
	})
	return c
}

// Verify visits every URL once. Results keep the order of urls; URLs not
// visited because ctx was cancelled are left out and ctx.Err() is returned.
func (v *Verifier) Verify(ctx context.Context, urls []string) (*Report, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(urls))
	)
	record := func(r Result) {
		mu.Lock()
		results[r.URL] = r
		mu.Unlock()
	}

	c := v.newCollector()

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		v.logger.LogDebug("Verifying %s", r.URL)
	})

	c.OnResponse(func(r *colly.Response) {
		res := Result{URL: r.Ctx.Get(urlKey), StatusCode: r.StatusCode, OK: true}
		if strings.Contains(r.Headers.Get("Content-Type"), "html") {
			meta, err := ExtractPageMeta(r.Body)
			if err != nil {
				v.logger.LogWarn("Could not parse %s: %v", res.URL, err)
			}
			res.Meta = meta
		}
		record(res)
	})

	c.OnError(func(r *colly.Response, err error) {
		res := Result{URL: r.Ctx.Get(urlKey), StatusCode: r.StatusCode, Error: err.Error()}
		v.logger.LogWarn("Broken URL %s: %v", res.URL, err)
		record(res)
	})

	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		if ctx.Err() != nil {
			break
		}

		reqCtx := colly.NewContext()
		reqCtx.Put(urlKey, u)
		if err := c.Request("GET", u, nil, reqCtx, nil); err != nil {
			record(Result{URL: u, Error: err.Error()})
		}
	}
	c.Wait()

	report := &Report{Results: make([]Result, 0, len(seen))}
	reported := make(map[string]bool, len(seen))
	for _, u := range urls {
		r, ok := results[u]
		if !ok || reported[u] {
			continue
		}
		reported[u] = true

		report.Checked++
		if r.OK {
			report.OK++
		} else {
			report.Broken++
		}
		if r.Meta != nil && r.Meta.NoIndex {
			report.NoIndex++
		}
		report.Results = append(report.Results, r)
	}

	v.logger.LogInfo("Verified %d URLs: %d ok, %d broken", report.Checked, report.OK, report.Broken)
	return report, ctx.Err()
}
