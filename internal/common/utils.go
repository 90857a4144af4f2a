package common

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/kulinaria-scraper/models"
	"github.com/dtnitsch/kulinaria-scraper/pkg/db"
)

// NewLogger returns the JSON logger used by every command.
func NewLogger(c *cli.Context) *slog.Logger {
	return newLogger(c.App.ErrWriter, c.Bool("quiet"))
}

func newLogger(w io.Writer, quiet bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// FlagContext returns the context in c's lineage where the flag name was set
// on the command line, or c itself when no level set it. Flags declared both
// on the app and on a command are read this way so either position works.
func FlagContext(c *cli.Context, name string) *cli.Context {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx
		}
	}
	return c
}

// LoadConfig reads the --config file and applies any flags set on the command line.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("base-url") {
		cfg.Site.BaseURL = c.String("base-url")
	}
	if c.IsSet("max-count") {
		cfg.Site.MaxCount = c.Int("max-count")
	}
	if c.IsSet("concurrency") {
		cfg.Fetch.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("timeout") {
		cfg.Fetch.Timeout = c.Duration("timeout")
	}
	if c.IsSet("insecure") {
		cfg.Fetch.InsecureSkipVerify = c.Bool("insecure")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Dir = c.String("cache-dir")
	}
	if c.IsSet("cache-ttl") {
		cfg.Cache.TTL = c.Duration("cache-ttl")
	}
	if c.IsSet("db-driver") {
		cfg.Storage.Driver = c.String("db-driver")
	}
	if c.IsSet("db-dsn") {
		cfg.Storage.DSN = c.String("db-dsn")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// OpenStore opens the configured recipe store.
func OpenStore(cfg *models.Config) (*db.DB, error) {
	database, err := db.Open(cfg.Storage)
	if err != nil {
		return nil, &models.StorageError{Op: "open", Err: err}
	}
	return database, nil
}
