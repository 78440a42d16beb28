package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
)

// Update is a partial configuration change. Nil fields are left alone; maps
// are merged key by key and a non-nil ExcludePaths replaces the list.
type Update struct {
	BaseURL         *string                           `json:"baseUrl,omitempty"`
	OutputPath      *string                           `json:"outputPath,omitempty"`
	ExcludePaths    []string                          `json:"excludePaths,omitempty"`
	PriorityMap     map[string]float64                `json:"priorityMap,omitempty"`
	ChangeFreqMap   map[string]models.ChangeFrequency `json:"changeFreqMap,omitempty"`
	IncludeLastMod  *bool                             `json:"includeLastMod,omitempty"`
	BackupRetention *int                              `json:"backupRetention,omitempty"`
}

func (u Update) apply(c *models.SitemapConfig) {
	if u.BaseURL != nil {
		c.BaseURL = *u.BaseURL
	}
	if u.OutputPath != nil {
		c.OutputPath = *u.OutputPath
	}
	if u.ExcludePaths != nil {
		c.ExcludePaths = append([]string(nil), u.ExcludePaths...)
	}
	for k, v := range u.PriorityMap {
		c.PriorityMap[k] = v
	}
	for k, v := range u.ChangeFreqMap {
		c.ChangeFreqMap[k] = v
	}
	if u.IncludeLastMod != nil {
		c.IncludeLastMod = *u.IncludeLastMod
	}
	if u.BackupRetention != nil {
		c.BackupRetention = *u.BackupRetention
	}
}

// RouteConfig is the effective policy of one route.
type RouteConfig struct {
	Priority   float64                `json:"priority"`
	ChangeFreq models.ChangeFrequency `json:"changeFreq"`
}

// RouteOverride sets the priority and/or change frequency of a route key.
type RouteOverride struct {
	Priority   *float64               `json:"priority,omitempty"`
	ChangeFreq models.ChangeFrequency `json:"changeFreq,omitempty"`
}

// Manager is the configuration store shared by the generator, the CLI and
// the HTTP API.
type Manager struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewManager loads the configuration at path (or searches for one when path
// is empty).
func NewManager(path string) (*Manager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: cfg.ConfigFile, cfg: cfg}, nil
}

// NewManagerFromConfig wraps an already built configuration.
func NewManagerFromConfig(cfg *Config) (*Manager, error) {
	if err := Validate(&cfg.SitemapConfig); err != nil {
		return nil, err
	}
	c := *cfg
	c.SitemapConfig = cfg.SitemapConfig.Clone()
	path := c.ConfigFile
	if path == "" {
		path = DefaultConfigFile
	}
	return &Manager{path: path, cfg: &c}, nil
}

// Path is the file ReloadConfig and SaveConfig use.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Config returns a snapshot of the sitemap policy.
func (m *Manager) Config() models.SitemapConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.SitemapConfig.Clone()
}

// Settings returns a snapshot of the whole configuration.
func (m *Manager) Settings() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := *m.cfg
	c.SitemapConfig = m.cfg.SitemapConfig.Clone()
	return c
}

func (m *Manager) UpdateConfig(u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg.SitemapConfig.Clone()
	u.apply(&next)
	if err := Validate(&next); err != nil {
		return err
	}
	m.cfg.SitemapConfig = next
	return nil
}

// ValidateConfig checks what the configuration would look like with u
// applied to the defaults.
func ValidateConfig(u Update) error {
	c := DefaultSitemapConfig()
	u.apply(&c)
	return Validate(&c)
}

func (m *Manager) RouteConfig(route string) RouteConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, f := m.cfg.RouteSettings(route)
	return RouteConfig{Priority: p, ChangeFreq: f}
}

func (m *Manager) SetRouteConfig(route string, o RouteOverride) error {
	if o.Priority != nil {
		if err := models.ValidatePriority(*o.Priority); err != nil {
			return errhandler.NewValidationError(err.Error(), "route "+route, err)
		}
	}
	if o.ChangeFreq != "" {
		if _, err := models.ParseChangeFrequency(string(o.ChangeFreq)); err != nil {
			return errhandler.NewValidationError(err.Error(), "route "+route, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if o.Priority != nil {
		m.cfg.PriorityMap[route] = *o.Priority
	}
	if o.ChangeFreq != "" {
		m.cfg.ChangeFreqMap[route] = o.ChangeFreq
	}
	return nil
}

// AddExcludePath adds path to the exclude list unless it is already there.
func (m *Manager) AddExcludePath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.cfg.ExcludePaths {
		if p == path {
			return
		}
	}
	m.cfg.ExcludePaths = append(m.cfg.ExcludePaths, path)
}

func (m *Manager) RemoveExcludePath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.cfg.ExcludePaths[:0]
	for _, p := range m.cfg.ExcludePaths {
		if p != path {
			kept = append(kept, p)
		}
	}
	m.cfg.ExcludePaths = kept
}

// ReloadConfig re-reads the backing file. The current configuration is kept
// if the file can't be loaded.
func (m *Manager) ReloadConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := LoadConfig(m.path)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// SaveConfig writes the current configuration to the backing file as YAML.
func (m *Manager) SaveConfig() error {
	m.mu.RLock()
	cfg := *m.cfg
	path := m.path
	m.mu.RUnlock()

	return writeConfigFile(path, &cfg)
}

func (m *Manager) ConfigFileExists() bool {
	return fsutil.Exists(m.Path())
}

// CreateDefaultConfigFile writes the defaults to the backing file. It refuses
// to overwrite an existing file.
func (m *Manager) CreateDefaultConfigFile() error {
	path := m.Path()
	if fsutil.Exists(path) {
		return errhandler.NewFileError(fmt.Sprintf("configuration file already exists: %s", path), "create config", os.ErrExist)
	}
	return writeConfigFile(path, Default())
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errhandler.NewConfigError(fmt.Sprintf("failed to encode config: %v", err), "save config", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errhandler.NewFileError(fmt.Sprintf("failed to create config directory: %v", err), "save config", err)
		}
	}

	content := append([]byte("# Sitemap generator configuration\n"), data...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return errhandler.NewFileError(fmt.Sprintf("failed to write config: %v", err), "save config", err)
	}
	return nil
}

// Summary renders the configuration for the terminal.
func (m *Manager) Summary() string {
	c := m.Config()

	var b strings.Builder
	fmt.Fprintf(&b, "Sitemap Configuration:\n")
	fmt.Fprintf(&b, "  Base URL: %s\n", c.BaseURL)
	fmt.Fprintf(&b, "  Output Path: %s\n", c.OutputPath)
	fmt.Fprintf(&b, "  Include Last Modified: %t\n", c.IncludeLastMod)
	fmt.Fprintf(&b, "  Backup Retention: %d\n", c.BackupRetention)
	fmt.Fprintf(&b, "  Excluded Paths: %s\n", strings.Join(c.ExcludePaths, ", "))
	fmt.Fprintf(&b, "  Priority Mappings: %d routes\n", len(c.PriorityMap))
	fmt.Fprintf(&b, "  Change Frequency Mappings: %d routes\n", len(c.ChangeFreqMap))
	if m.ConfigFileExists() {
		fmt.Fprintf(&b, "  Config File: %s\n", m.Path())
	} else {
		fmt.Fprintf(&b, "  Config File: none (using defaults)\n")
	}
	return b.String()
}
