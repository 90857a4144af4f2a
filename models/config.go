// Package models defines data structures for configuration, records and errors.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://kulinaria.ge/"
	DefaultListingPath = "receptebi/cat/msoplio-samzareulo/"
	DefaultMaxCount    = 10
	DefaultTimeout     = 30 * time.Second
	DefaultCacheTTL    = time.Hour

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration. Values come from an optional YAML file
// layered over Default(), then CLI flag overrides.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
}

// SiteConfig describes the remote site being scraped.
type SiteConfig struct {
	BaseURL     string `yaml:"base_url"`
	ListingPath string `yaml:"listing_path"`
	MaxCount    int    `yaml:"max_count"`
}

// FetchConfig controls the shared HTTP client and the fan-out width.
type FetchConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	// Concurrency caps in-flight recipe fetches. Zero means one task per URL.
	Concurrency int `yaml:"concurrency"`
}

// CacheConfig enables the on-disk page cache when Dir is set.
type CacheConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     DefaultBaseURL,
			ListingPath: DefaultListingPath,
			MaxCount:    DefaultMaxCount,
		},
		Fetch: FetchConfig{
			Timeout: DefaultTimeout,
		},
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
// A missing file is not an error; the defaults are returned as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return fmt.Errorf("invalid site.base_url %q: must be an absolute http(s) URL", c.Site.BaseURL)
	}
	if c.Site.MaxCount <= 0 {
		return fmt.Errorf("invalid site.max_count %d: must be positive", c.Site.MaxCount)
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("invalid fetch.concurrency %d: must not be negative", c.Fetch.Concurrency)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("invalid fetch.timeout %s: must not be negative", c.Fetch.Timeout)
	}
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// ListingURL joins the base URL and the listing path.
func (s SiteConfig) ListingURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.ListingPath, "/")
}

// ResolveURL turns a link found on the site into an absolute URL.
// Absolute links are returned unchanged.
func (s SiteConfig) ResolveURL(ref string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	rel, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("failed to parse link %q: %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}
