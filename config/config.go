// Package config loads the RiversOS configuration: defaults, optional YAML
// file, then environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full RiversOS configuration.
type Config struct {
	KnowledgeDB string `yaml:"knowledge_db"`
	SOCDB       string `yaml:"soc_db"`
	CacheDir    string `yaml:"cache_dir"`
	OutputDir   string `yaml:"output_dir"`
	LogLevel    string `yaml:"log_level"`

	Web       WebConfig       `yaml:"web"`
	Intel     IntelConfig     `yaml:"intel"`
	Briefing  BriefingConfig  `yaml:"briefing"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// WebConfig configures the HTTP front end.
type WebConfig struct {
	Addr          string `yaml:"addr"`
	BasicAuthUser string `yaml:"basic_auth_user"`
	BasicAuthHash string `yaml:"basic_auth_hash"` // bcrypt hash
}

// IntelConfig configures feed collection.
type IntelConfig struct {
	ThreatFoxURL   string   `yaml:"threatfox_url"`
	URLhausURL     string   `yaml:"urlhaus_url"`
	CISAKEVURL     string   `yaml:"cisa_kev_url"`
	InsightURLs    []string `yaml:"insight_urls"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// BriefingConfig configures briefing generation.
type BriefingConfig struct {
	Company  string   `yaml:"company"`
	Tagline  string   `yaml:"tagline"`
	Contact  string   `yaml:"contact"`
	Denylist []string `yaml:"denylist"`
}

// DashboardConfig configures the snapshot refresher.
type DashboardConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		KnowledgeDB: "data/knowledge/knowledge.db",
		SOCDB:       "data/soc/soc.db",
		CacheDir:    "data/cache",
		OutputDir:   "output",
		LogLevel:    "info",
		Web: WebConfig{
			Addr: ":5000",
		},
		Dashboard: DashboardConfig{
			RefreshSeconds: 30,
		},
	}
}

// Load builds the configuration. A .env file is read if present, then the
// YAML file at path (skipped when path is empty and the default file is
// missing), then environment variables override individual fields.
func Load(path string) (*Config, error) {
	godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = "riversos.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.KnowledgeDB, "RIVERSOS_KNOWLEDGE_DB")
	setString(&c.SOCDB, "RIVERSOS_SOC_DB")
	setString(&c.CacheDir, "RIVERSOS_CACHE_DIR")
	setString(&c.OutputDir, "RIVERSOS_OUTPUT_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Web.Addr, "RIVERSOS_WEB_ADDR")
	setString(&c.Web.BasicAuthUser, "RIVERSOS_AUTH_USER")
	setString(&c.Web.BasicAuthHash, "RIVERSOS_AUTH_HASH")
	if port := os.Getenv("PORT"); port != "" {
		c.Web.Addr = ":" + port
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// RefreshInterval returns the dashboard refresh period.
func (c *Config) RefreshInterval() time.Duration {
	if c.Dashboard.RefreshSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Dashboard.RefreshSeconds) * time.Second
}

// FetchTimeout returns the feed fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	if c.Intel.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Intel.TimeoutSeconds) * time.Second
}
