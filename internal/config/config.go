// Package config loads and validates the chartwatch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingCatalogPath   = errors.New("catalog_path is required")
	ErrInvalidStatsDriver   = errors.New("stats.driver must be 'csv' or 'sqlite'")
	ErrMissingStatsPath     = errors.New("stats.path is required")
	ErrInvalidCohortYear    = errors.New("pipeline.cohort_year must be positive")
	ErrInvalidPolicy        = errors.New("pipeline.reference_policy must be 'max_views' or 'by_title'")
	ErrMissingRefTitle      = errors.New("pipeline.reference_title is required for the by_title policy")
	ErrInvalidViewsSource   = errors.New("pipeline.views_source must be 'derived' or 'column'")
	ErrNegativeThreshold    = errors.New("chart.annotate_threshold must be non-negative")
	ErrInvalidTimeout       = errors.New("youtube.timeout_secs must be at least 1")
	ErrInvalidCacheTTL      = errors.New("youtube.cache_ttl_secs must be non-negative")
	ErrInvalidRefreshTime   = errors.New("server.refresh_time must be in HH:MM format")
)

// refreshTimeRegex validates HH:MM with proper ranges.
var refreshTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Config is the complete application configuration.
type Config struct {
	CatalogPath string         `yaml:"catalog_path"`
	Stats       StatsConfig    `yaml:"stats"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	Chart       ChartConfig    `yaml:"chart"`
	YouTube     YouTubeConfig  `yaml:"youtube"`
	Server      ServerConfig   `yaml:"server"`
}

// StatsConfig selects the observation store driver.
type StatsConfig struct {
	Driver string `yaml:"driver"` // "csv" or "sqlite"
	Path   string `yaml:"path"`
}

// PipelineConfig parameterizes the derivation pipeline.
type PipelineConfig struct {
	CohortYear     int    `yaml:"cohort_year"`
	Policy         string `yaml:"reference_policy"` // "max_views" or "by_title"
	ReferenceTitle string `yaml:"reference_title"`
	ViewsSource    string `yaml:"views_source"` // "derived" or "column"
}

// ChartConfig covers presentation options. Colors are CSS hex strings.
type ChartConfig struct {
	Title              string  `yaml:"title"`
	ViewsSeriesName    string  `yaml:"views_series_name"`
	VotesSeriesName    string  `yaml:"votes_series_name"`
	AnnotateThreshold  float64 `yaml:"annotate_threshold"`
	MagnitudeThreshold float64 `yaml:"magnitude_threshold"`
	Palette            Palette `yaml:"palette"`
	OutputPath         string  `yaml:"output_path"`
}

// Palette is the two-tone annotation color scheme plus the bar colors.
type Palette struct {
	ViewsBar       string `yaml:"views_bar"`
	VotesBar       string `yaml:"votes_bar"`
	PositiveBright string `yaml:"positive_bright"`
	PositiveDark   string `yaml:"positive_dark"`
	NegativeBright string `yaml:"negative_bright"`
	NegativeDark   string `yaml:"negative_dark"`
}

// YouTubeConfig configures the remote stat lookup.
type YouTubeConfig struct {
	APIKey       string `yaml:"api_key"`
	AccessToken  string `yaml:"access_token"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs"`
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	RefreshTime string `yaml:"refresh_time"` // optional daily refresh, HH:MM
	Timezone    string `yaml:"timezone"`
}

// Load reads configuration from a YAML file and applies defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with all defaults applied, for callers
// that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvironmentOverrides()
	return cfg
}

// Path returns the config file path from the environment or the default.
func Path() string {
	if path := os.Getenv("CHARTWATCH_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func (c *Config) applyDefaults() {
	if c.CatalogPath == "" {
		c.CatalogPath = "data.csv"
	}
	if c.Stats.Driver == "" {
		c.Stats.Driver = "csv"
	}
	if c.Stats.Path == "" {
		if c.Stats.Driver == "sqlite" {
			c.Stats.Path = "stats.db"
		} else {
			c.Stats.Path = "stats.csv"
		}
	}
	if c.Pipeline.CohortYear == 0 {
		c.Pipeline.CohortYear = 2024
	}
	if c.Pipeline.Policy == "" {
		c.Pipeline.Policy = "max_views"
	}
	if c.Pipeline.ViewsSource == "" {
		c.Pipeline.ViewsSource = "derived"
	}
	if c.Chart.Title == "" {
		c.Chart.Title = "叱咤 903 我最喜愛歌曲票數比例 與 YouTube MV 觀看次數比例"
	}
	if c.Chart.ViewsSeriesName == "" {
		c.Chart.ViewsSeriesName = "MV 每日觀看次數"
	}
	if c.Chart.VotesSeriesName == "" {
		c.Chart.VotesSeriesName = "Total Votes (Normalized)"
	}
	if c.Chart.MagnitudeThreshold == 0 {
		c.Chart.MagnitudeThreshold = 10
	}
	p := &c.Chart.Palette
	if p.ViewsBar == "" {
		p.ViewsBar = "#1f77b4"
	}
	if p.VotesBar == "" {
		p.VotesBar = "#d62728"
	}
	if p.PositiveBright == "" {
		p.PositiveBright = "#2ecc71"
	}
	if p.PositiveDark == "" {
		p.PositiveDark = "#27ae60"
	}
	if p.NegativeBright == "" {
		p.NegativeBright = "#e74c3c"
	}
	if p.NegativeDark == "" {
		p.NegativeDark = "#c0392b"
	}
	if c.YouTube.TimeoutSecs == 0 {
		c.YouTube.TimeoutSecs = 10
	}
	if c.YouTube.CacheTTLSecs == 0 {
		c.YouTube.CacheTTLSecs = 3600
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.Timezone == "" {
		c.Server.Timezone = "Asia/Hong_Kong"
	}
}

func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("CHARTWATCH_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("CHARTWATCH_YOUTUBE_API_KEY"); v != "" {
		c.YouTube.APIKey = v
	}
	if v := os.Getenv("CHARTWATCH_YOUTUBE_ACCESS_TOKEN"); v != "" {
		c.YouTube.AccessToken = v
	}
	if v := os.Getenv("CHARTWATCH_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return ErrMissingCatalogPath
	}
	if c.Stats.Driver != "csv" && c.Stats.Driver != "sqlite" {
		return ErrInvalidStatsDriver
	}
	if c.Stats.Path == "" {
		return ErrMissingStatsPath
	}
	if c.Pipeline.CohortYear <= 0 {
		return ErrInvalidCohortYear
	}
	switch c.Pipeline.Policy {
	case "max_views":
	case "by_title":
		if c.Pipeline.ReferenceTitle == "" {
			return ErrMissingRefTitle
		}
	default:
		return ErrInvalidPolicy
	}
	if c.Pipeline.ViewsSource != "derived" && c.Pipeline.ViewsSource != "column" {
		return ErrInvalidViewsSource
	}
	if c.Chart.AnnotateThreshold < 0 {
		return ErrNegativeThreshold
	}
	if c.YouTube.TimeoutSecs < 1 {
		return ErrInvalidTimeout
	}
	if c.YouTube.CacheTTLSecs < 0 {
		return ErrInvalidCacheTTL
	}
	if c.Server.RefreshTime != "" && !refreshTimeRegex.MatchString(c.Server.RefreshTime) {
		return ErrInvalidRefreshTime
	}
	return nil
}
