package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := Default()
	cfg.ConfigFile = filepath.Join(t.TempDir(), DefaultConfigFile)
	m, err := NewManagerFromConfig(cfg)
	require.NoError(t, err)
	return m
}

func strPtr(s string) *string { return &s }

func TestManagerConfigIsSnapshot(t *testing.T) {
	m := newTestManager(t)

	c := m.Config()
	c.PriorityMap["/"] = 0.1
	c.ExcludePaths[0] = "/changed"

	assert.Equal(t, 1.0, m.Config().PriorityMap["/"])
	assert.Equal(t, "/api", m.Config().ExcludePaths[0])
}

func TestUpdateConfigMerges(t *testing.T) {
	m := newTestManager(t)

	err := m.UpdateConfig(Update{
		BaseURL:     strPtr("https://example.com"),
		PriorityMap: map[string]float64{"/new": 0.4},
	})
	require.NoError(t, err)

	c := m.Config()
	assert.Equal(t, "https://example.com", c.BaseURL)
	assert.Equal(t, 0.4, c.PriorityMap["/new"])
	assert.Equal(t, 1.0, c.PriorityMap["/"])
	assert.Len(t, c.ExcludePaths, 4)

	require.NoError(t, m.UpdateConfig(Update{ExcludePaths: []string{"/only"}}))
	assert.Equal(t, []string{"/only"}, m.Config().ExcludePaths)
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	m := newTestManager(t)
	before := m.Config()

	tests := []struct {
		name   string
		update Update
	}{
		{"priority", Update{PriorityMap: map[string]float64{"/x": 1.2}}},
		{"change frequency", Update{ChangeFreqMap: map[string]models.ChangeFrequency{"/x": "sometimes"}}},
		{"base url", Update{BaseURL: strPtr("not a url")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.UpdateConfig(tt.update)
			require.Error(t, err)
			assert.True(t, errhandler.IsKind(err, errhandler.KindConfig))
			assert.Equal(t, before, m.Config())
		})
	}
}

func TestRouteConfig(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, RouteConfig{Priority: 0.9, ChangeFreq: models.ChangeWeekly}, m.RouteConfig("/hot-apps"))
	assert.Equal(t, RouteConfig{Priority: 0.8, ChangeFreq: models.ChangeWeekly}, m.RouteConfig("/blog/post"))
}

func TestSetRouteConfig(t *testing.T) {
	m := newTestManager(t)

	p := 0.3
	require.NoError(t, m.SetRouteConfig("/x", RouteOverride{Priority: &p, ChangeFreq: models.ChangeMonthly}))
	assert.Equal(t, RouteConfig{Priority: 0.3, ChangeFreq: models.ChangeMonthly}, m.RouteConfig("/x"))

	bad := 1.5
	err := m.SetRouteConfig("/y", RouteOverride{Priority: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority must be between 0 and 1")
	_, ok := m.Config().PriorityMap["/y"]
	assert.False(t, ok)

	err = m.SetRouteConfig("/y", RouteOverride{ChangeFreq: "often"})
	require.Error(t, err)
	_, ok = m.Config().ChangeFreqMap["/y"]
	assert.False(t, ok)
}

func TestExcludePaths(t *testing.T) {
	m := newTestManager(t)

	m.AddExcludePath("/private")
	m.AddExcludePath("/private")
	assert.Equal(t, []string{"/api", "/_next", "/404", "/500", "/private"}, m.Config().ExcludePaths)

	m.RemoveExcludePath("/api")
	m.RemoveExcludePath("/missing")
	assert.Equal(t, []string{"/_next", "/404", "/500", "/private"}, m.Config().ExcludePaths)
}

func TestSaveAndReload(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.ConfigFileExists())

	require.NoError(t, m.UpdateConfig(Update{BaseURL: strPtr("https://saved.example")}))
	p := 0.2
	require.NoError(t, m.SetRouteConfig("/archive", RouteOverride{Priority: &p}))
	require.NoError(t, m.SaveConfig())
	assert.True(t, m.ConfigFileExists())

	// unsaved change is dropped by reload
	require.NoError(t, m.UpdateConfig(Update{BaseURL: strPtr("https://unsaved.example")}))
	require.NoError(t, m.ReloadConfig())

	c := m.Config()
	assert.Equal(t, "https://saved.example", c.BaseURL)
	assert.Equal(t, 0.2, c.PriorityMap["/archive"])
}

func TestSaveAndReloadKeepsRouteKeyCase(t *testing.T) {
	m := newTestManager(t)

	p := 0.4
	require.NoError(t, m.SetRouteConfig("/Docs/GettingStarted", RouteOverride{Priority: &p, ChangeFreq: models.ChangeMonthly}))
	require.NoError(t, m.SaveConfig())
	require.NoError(t, m.ReloadConfig())

	c := m.Config()
	assert.Equal(t, 0.4, c.PriorityMap["/Docs/GettingStarted"])
	assert.Equal(t, models.ChangeMonthly, c.ChangeFreqMap["/Docs/GettingStarted"])
	assert.NotContains(t, c.PriorityMap, "/docs/gettingstarted")
}

func TestReloadKeepsConfigOnError(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.Path(), []byte("priorityMap:\n  /: 7\n"), 0644))

	require.Error(t, m.ReloadConfig())
	assert.Equal(t, 1.0, m.Config().PriorityMap["/"])
}

func TestCreateDefaultConfigFile(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.CreateDefaultConfigFile())
	assert.True(t, m.ConfigFileExists())

	err := m.CreateDefaultConfigFile()
	require.Error(t, err)
	assert.True(t, errhandler.IsKind(err, errhandler.KindFile))

	loaded, err := LoadConfig(m.Path())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, loaded.BaseURL)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(Update{BaseURL: strPtr("http://localhost:3000")}))
	assert.Error(t, ValidateConfig(Update{PriorityMap: map[string]float64{"/": -0.1}}))
}

func TestSummary(t *testing.T) {
	m := newTestManager(t)
	s := m.Summary()
	assert.Contains(t, s, "Base URL: "+DefaultBaseURL)
	assert.Contains(t, s, "none (using defaults)")
}
