package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemap-gen/config"
	"github.com/romangod6/sitemap-gen/internal/blog"
	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/sitemap"
	"github.com/romangod6/sitemap-gen/internal/storage"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handler http.Handler
	cfg     *config.Config
	gen     *sitemap.Generator
	store   storage.Store
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"", "contact", "blog", "blog/[slug]"} {
		full := filepath.Join(root, "app", filepath.FromSlash(dir))
		require.NoError(t, os.MkdirAll(full, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(full, "page.tsx"), nil, 0644))
	}

	cfg := config.Default()
	cfg.BaseURL = "https://example.com"
	cfg.OutputPath = filepath.Join(root, "public", "sitemap.xml")
	cfg.Paths.Root = root
	cfg.ConfigFile = filepath.Join(root, "sitemap.config.yaml")

	m, err := config.NewManagerFromConfig(cfg)
	require.NoError(t, err)

	env := &testEnv{cfg: cfg}
	opts := []sitemap.Option{
		sitemap.WithLogger(utils.Discard()),
		sitemap.WithClock(func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }),
		sitemap.WithStater(fsutil.Fixed{}),
		sitemap.WithBlogSource(blog.SourceFunc(func() ([]models.BlogPost, error) {
			return []models.BlogPost{{Slug: "first-post", Title: "First", Date: "2024-06-10"}}, nil
		})),
	}
	if withHistory {
		env.store, err = storage.Open("sqlite3", filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { env.store.Close() })
		opts = append(opts, sitemap.WithHistory(env.store))
	}

	env.gen = sitemap.New(m, opts...)
	env.handler = NewServer(0, env.gen, env.store, utils.Discard()).Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestServeSitemap(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/sitemap.xml", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, w.Body.String(), "<loc>https://example.com/blog/first-post</loc>")
	assert.Equal(t, 4, sitemap.CountURLs(w.Body.String()))
	assert.NoFileExists(t, env.cfg.OutputPath)
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/api/sitemap/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerationResponse
	decode(t, w, &resp)
	assert.Equal(t, 4, resp.Stats.TotalEntries)
	assert.Equal(t, 1, resp.Stats.Duplicates)
	assert.Empty(t, resp.OutputPath)
}

func TestGenerateWritesFile(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, http.MethodPost, "/api/sitemap/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerationResponse
	decode(t, w, &resp)
	assert.Equal(t, env.cfg.OutputPath, resp.OutputPath)
	assert.FileExists(t, env.cfg.OutputPath)

	w = env.do(t, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data  []models.GenerationRun `json:"data"`
		Page  int                    `json:"page"`
		Limit int                    `json:"limit"`
	}
	decode(t, w, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.True(t, page.Data[0].Written)

	w = env.do(t, http.MethodGet, "/api/runs/"+page.Data[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run models.GenerationRun
	decode(t, w, &run)
	assert.Equal(t, page.Data[0].ID, run.ID)
}

func TestRunsErrors(t *testing.T) {
	env := newTestEnv(t, true)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/runs/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/runs/"+uuid.NewString(), nil).Code)

	noHistory := newTestEnv(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, noHistory.do(t, http.MethodGet, "/api/runs", nil).Code)
}

func TestValidateSetupEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/api/sitemap/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var v models.SetupValidation
	decode(t, w, &v)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Issues)
}

func TestUpdateConfig(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPatch, "/api/config", map[string]interface{}{
		"baseUrl":     "https://new.example.com",
		"priorityMap": map[string]float64{"/contact": 0.3},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var cfg models.SitemapConfig
	decode(t, w, &cfg)
	assert.Equal(t, "https://new.example.com", cfg.BaseURL)
	assert.Equal(t, 0.3, cfg.PriorityMap["/contact"])
	assert.Equal(t, 1.0, cfg.PriorityMap["/"])

	w = env.do(t, http.MethodPatch, "/api/config", map[string]interface{}{"baseUrl": "ftp://nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/config", nil)
	decode(t, w, &cfg)
	assert.Equal(t, "https://new.example.com", cfg.BaseURL)

	xml, err := env.gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, xml, "https://new.example.com/contact")
}

func TestSaveAndReloadConfig(t *testing.T) {
	env := newTestEnv(t, false)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPatch, "/api/config", map[string]string{"baseUrl": "https://saved.example.com"}).Code)
	w := env.do(t, http.MethodPost, "/api/config/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, env.cfg.ConfigFile)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPatch, "/api/config", map[string]string{"baseUrl": "https://unsaved.example.com"}).Code)

	w = env.do(t, http.MethodPost, "/api/config/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg models.SitemapConfig
	decode(t, w, &cfg)
	assert.Equal(t, "https://saved.example.com", cfg.BaseURL)

	require.NoError(t, os.WriteFile(env.cfg.ConfigFile, []byte("priorityMap: [oops"), 0644))
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/config/reload", nil).Code)
	assert.Equal(t, "https://saved.example.com", env.gen.Config().BaseURL)
}

func TestRouteConfig(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/config/routes?route=/blog/some-post", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rc config.RouteConfig
	decode(t, w, &rc)
	assert.Equal(t, 0.8, rc.Priority)

	w = env.do(t, http.MethodPut, "/api/config/routes", map[string]interface{}{"route": "/contact", "priority": 0.9, "changeFreq": "daily"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &rc)
	assert.Equal(t, 0.9, rc.Priority)
	assert.Equal(t, models.ChangeDaily, rc.ChangeFreq)

	w = env.do(t, http.MethodPut, "/api/config/routes", map[string]interface{}{"route": "/contact", "priority": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0.9, env.gen.ConfigManager().RouteConfig("/contact").Priority)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/config/routes", nil).Code)
}

func TestExcludePaths(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/config/exclude", map[string]string{"path": "/contact"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, env.gen.Config().ExcludePaths, "/contact")

	xml, err := env.gen.Generate(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, xml, "/contact")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/config/exclude", map[string]string{"path": "contact"}).Code)

	w = env.do(t, http.MethodDelete, "/api/config/exclude?path=/contact", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, env.gen.Config().ExcludePaths, "/contact")
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 10},
		{"?page=3&limit=50", 3, 50},
		{"?page=0&limit=500", 1, 10},
		{"?page=x&limit=-1", 1, 10},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil)

		page, limit := getPaginationParams(c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}
