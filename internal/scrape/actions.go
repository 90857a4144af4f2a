package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/kulinaria-scraper/internal/common"
	"github.com/dtnitsch/kulinaria-scraper/models"
	"github.com/dtnitsch/kulinaria-scraper/pkg/analytics"
	"github.com/dtnitsch/kulinaria-scraper/pkg/caching"
	"github.com/dtnitsch/kulinaria-scraper/pkg/db"
	"github.com/dtnitsch/kulinaria-scraper/pkg/fetcher"
	"github.com/dtnitsch/kulinaria-scraper/pkg/pipeline"
	"github.com/dtnitsch/kulinaria-scraper/pkg/storage"
)

// Options controls a single scrape.
type Options struct {
	Config     *models.Config
	ListingURL string
	// Out is an optional .json/.yaml export path.
	Out      string
	NoStore  bool
	TopWords int
}

// ScrapeAction runs the whole pipeline: scrape, replace the stored recipes
// and print the analytics report.
func ScrapeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	opts := Options{
		Config:     cfg,
		ListingURL: common.FlagContext(c, "listing-url").String("listing-url"),
		Out:        common.FlagContext(c, "out").String("out"),
		NoStore:    common.FlagContext(c, "no-store").Bool("no-store"),
		TopWords:   common.FlagContext(c, "top-words").Int("top-words"),
	}

	_, err = Run(c.Context, opts, logger, c.App.Writer)
	return err
}

// Run executes one scrape. Only listing, storage and export failures are
// returned; failed recipe pages are logged, recorded and skipped.
func Run(ctx context.Context, opts Options, logger *slog.Logger, stdout io.Writer) (*pipeline.RunResult, error) {
	cfg := opts.Config

	var store *db.DB
	if !opts.NoStore {
		var err error
		store, err = common.OpenStore(cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	pageFetcher, err := newPageFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	listingURL := opts.ListingURL
	if listingURL == "" {
		listingURL = cfg.Site.ListingURL()
	}

	result, err := pipeline.New(pageFetcher, cfg.Site, cfg.Fetch.Concurrency, logger).Run(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	if opts.Out != "" {
		if err := storage.Export(opts.Out, result.Recipes); err != nil {
			return result, fmt.Errorf("failed to export recipes: %w", err)
		}
		logger.Info("Exported recipes", "path", opts.Out, "count", len(result.Recipes))
	}

	if store == nil {
		return result, nil
	}

	if err := save(ctx, store, listingURL, result, logger); err != nil {
		return result, err
	}

	report, err := analytics.Build(ctx, store, opts.TopWords)
	if err != nil {
		return result, err
	}
	if err := report.Print(stdout); err != nil {
		return result, fmt.Errorf("failed to print report: %w", err)
	}

	return result, nil
}

func newPageFetcher(cfg *models.Config, logger *slog.Logger) (pipeline.PageFetcher, error) {
	fanOut := cfg.Fetch.Concurrency
	if fanOut <= 0 {
		fanOut = cfg.Site.MaxCount
	}
	f := fetcher.NewFetcher(cfg.Fetch, fanOut)
	if cfg.Cache.Dir == "" {
		return f, nil
	}

	cache, err := caching.NewCache(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize page cache: %w", err)
	}
	logger.Info("Page cache enabled", "dir", cfg.Cache.Dir, "ttl", cfg.Cache.TTL)
	return caching.NewCachingFetcher(f, cache, logger), nil
}

// save replaces the stored recipes with this run's and records the run.
func save(ctx context.Context, store *db.DB, listingURL string, result *pipeline.RunResult, logger *slog.Logger) error {
	if err := store.ClearAll(ctx); err != nil {
		return err
	}

	ids, err := store.InsertMany(ctx, result.Recipes)
	if err != nil {
		return err
	}
	logger.Info("Stored recipes", "count", len(ids))

	failures := make([]db.RunFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, db.RunFailure{
			URL:          f.URL,
			ErrorType:    f.ErrorType,
			ErrorMessage: f.Err.Error(),
		})
	}

	runID, err := store.RecordRun(ctx, db.Run{
		ListingURL:   listingURL,
		URLCount:     result.Stats.TotalURLs,
		SuccessCount: result.Stats.Successful,
		FailedCount:  result.Stats.Failed,
	}, failures)
	if err != nil {
		return err
	}
	logger.Info("Recorded run", "run_id", runID)

	return nil
}
