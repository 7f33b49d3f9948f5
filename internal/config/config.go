package config

import (
	"embed"
	"fmt"
	"os"

	"github.com/rideal/bike-catalog/internal/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML embed.FS

// Config is the embedded service configuration, overridable per deployment
// through CONFIG_PATH and a handful of environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Cities     CitiesConfig     `yaml:"cities"`
	Compare    CompareConfig    `yaml:"compare"`
	Categories []CategoryConfig `yaml:"categories"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Default: 30
}

type CitiesConfig struct {
	BaseURL    string `yaml:"base_url"`
	ResourceID string `yaml:"resource_id"`
}

type CompareConfig struct {
	MaxItems int `yaml:"max_items"`
}

// CategoryConfig carries the per-category slider defaults and which spec
// filters are meaningful for the category (fork travel is not a road-bike
// filter, for example).
type CategoryConfig struct {
	ID      string                 `yaml:"id"`
	Name    string                 `yaml:"name"`
	Default bool                   `yaml:"default,omitempty"`
	Limits  catalog.CategoryLimits `yaml:"limits"`
}

// Load reads the embedded configuration, or the file named by CONFIG_PATH
// when set, and applies environment overrides.
func Load() (*Config, error) {
	data, err := readConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if upstream := os.Getenv("UPSTREAM_URL"); upstream != "" {
		cfg.Upstream.BaseURL = upstream
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = 30
	}
	if cfg.Compare.MaxItems == 0 {
		cfg.Compare.MaxItems = 4
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("config defines no categories")
	}

	return &cfg, nil
}

func readConfig() ([]byte, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return data, nil
	}
	return catalogYAML.ReadFile("catalog.yaml")
}

// LimitsFor returns the slider defaults for a category, falling back to the
// default category for unknown or empty ids.
func (c *Config) LimitsFor(categoryID string) catalog.CategoryLimits {
	var fallback *CategoryConfig
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.ID == categoryID {
			return cat.Limits
		}
		if cat.Default && fallback == nil {
			fallback = cat
		}
	}
	if fallback == nil {
		fallback = &c.Categories[0]
	}
	return fallback.Limits
}
