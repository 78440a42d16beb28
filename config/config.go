package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/fsutil"
	"github.com/romangod6/sitemap-gen/internal/models"
)

const (
	DefaultConfigName = "sitemap.config"
	DefaultConfigFile = DefaultConfigName + ".yaml"
	DefaultBaseURL    = "https://multirun.space"
	DefaultOutputPath = "public/sitemap.xml"
)

// Config is the full generator configuration. The sitemap policy lives at the
// top level of the file; the remaining sections configure the surroundings.
type Config struct {
	models.SitemapConfig `mapstructure:",squash" yaml:",inline"`

	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Verify   VerifyConfig   `mapstructure:"verify" yaml:"verify"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

type PathsConfig struct {
	Root     string `mapstructure:"root" yaml:"root"`
	AppDir   string `mapstructure:"appDir" yaml:"appDir"`
	BlogDir  string `mapstructure:"blogDir" yaml:"blogDir"`
	PageFile string `mapstructure:"pageFile" yaml:"pageFile"`
	LogsDir  string `mapstructure:"logsDir" yaml:"logsDir"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	URL    string `mapstructure:"url" yaml:"url"`
}

type VerifyConfig struct {
	UserAgent   string `mapstructure:"userAgent" yaml:"userAgent"`
	Parallelism int    `mapstructure:"parallelism" yaml:"parallelism"`
	Timeout     string `mapstructure:"timeout" yaml:"timeout"`
}

// AppPath is the page tree root.
func (p PathsConfig) AppPath() string {
	return p.resolve(p.AppDir)
}

// BlogPath is the directory holding the blog markdown files.
func (p PathsConfig) BlogPath() string {
	return p.resolve(p.BlogDir)
}

func (p PathsConfig) LogsPath() string {
	return p.resolve(p.LogsDir)
}

func (p PathsConfig) resolve(dir string) string {
	if filepath.IsAbs(dir) || p.Root == "" {
		return dir
	}
	return filepath.Join(p.Root, dir)
}

func (v VerifyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(v.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// DefaultSitemapConfig is the built-in sitemap policy.
func DefaultSitemapConfig() models.SitemapConfig {
	return models.SitemapConfig{
		BaseURL:      DefaultBaseURL,
		OutputPath:   DefaultOutputPath,
		ExcludePaths: []string{"/api", "/_next", "/404", "/500"},
		PriorityMap: map[string]float64{
			"/":               1.0,
			"/blog":           0.8,
			"/hot-apps":       0.9,
			"/hot-games":      0.9,
			"/contact":        0.7,
			"/privacy-policy": 0.5,
			"/terms-of-use":   0.5,
		},
		ChangeFreqMap: map[string]models.ChangeFrequency{
			"/":               models.ChangeDaily,
			"/blog":           models.ChangeWeekly,
			"/hot-apps":       models.ChangeWeekly,
			"/hot-games":      models.ChangeWeekly,
			"/contact":        models.ChangeMonthly,
			"/privacy-policy": models.ChangeYearly,
			"/terms-of-use":   models.ChangeYearly,
		},
		IncludeLastMod:  true,
		BackupRetention: models.DefaultBackupRetention,
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		SitemapConfig: DefaultSitemapConfig(),
		Paths: PathsConfig{
			Root:     ".",
			AppDir:   "app",
			BlogDir:  "src/content/blog",
			PageFile: "page.tsx",
			LogsDir:  "logs",
		},
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite3"},
		Verify: VerifyConfig{
			UserAgent:   "sitemap-gen verifier/1.0",
			Parallelism: 2,
			Timeout:     "30s",
		},
	}
}

// LoadConfig reads the configuration file at path, or searches for
// sitemap.config.* in . and ./config when path is empty. A missing file
// yields the defaults. Scalars in the file override the defaults, maps are
// merged key by key and the exclude list is the union of both.
func LoadConfig(path string) (*Config, error) {
	defaults := Default()

	// Route keys contain dots, so viper's default "." delimiter would split them.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")
	setDefaults(v, defaults)

	if path != "" {
		if !fsutil.Exists(path) {
			defaults.ConfigFile = path
			return defaults, nil
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaults.ConfigFile = DefaultConfigFile
			return defaults, nil
		}
		return nil, errhandler.NewConfigError(fmt.Sprintf("failed to read config: %v", err), "load config", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errhandler.NewConfigError(fmt.Sprintf("failed to parse config: %v", err), "load config", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	// viper lowercases map keys; route keys are case sensitive
	routes, err := readRouteMaps(cfg.ConfigFile)
	if err != nil {
		return nil, errhandler.NewConfigError(fmt.Sprintf("failed to parse config: %v", err), "load config", err)
	}

	cfg.PriorityMap = mergeMap(defaults.PriorityMap, routes.PriorityMap)
	cfg.ChangeFreqMap = mergeMap(defaults.ChangeFreqMap, routes.ChangeFreqMap)
	cfg.ExcludePaths = union(defaults.ExcludePaths, cfg.ExcludePaths)

	if err := Validate(&cfg.SitemapConfig); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type routeMaps struct {
	PriorityMap   map[string]float64                `yaml:"priorityMap"`
	ChangeFreqMap map[string]models.ChangeFrequency `yaml:"changeFreqMap"`
}

// readRouteMaps decodes the per-route maps of the file at path with their
// keys as written.
func readRouteMaps(path string) (routeMaps, error) {
	var m routeMaps
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, err
	}
	return m, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("baseUrl", d.BaseURL)
	v.SetDefault("outputPath", d.OutputPath)
	v.SetDefault("includeLastMod", d.IncludeLastMod)
	v.SetDefault("backupRetention", d.BackupRetention)

	v.SetDefault("paths::root", d.Paths.Root)
	v.SetDefault("paths::appDir", d.Paths.AppDir)
	v.SetDefault("paths::blogDir", d.Paths.BlogDir)
	v.SetDefault("paths::pageFile", d.Paths.PageFile)
	v.SetDefault("paths::logsDir", d.Paths.LogsDir)

	v.SetDefault("server::port", d.Server.Port)
	v.SetDefault("database::driver", d.Database.Driver)
	v.SetDefault("database::url", d.Database.URL)

	v.SetDefault("verify::userAgent", d.Verify.UserAgent)
	v.SetDefault("verify::parallelism", d.Verify.Parallelism)
	v.SetDefault("verify::timeout", d.Verify.Timeout)
}

func mergeMap[V any](base, over map[string]V) map[string]V {
	out := make(map[string]V, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
