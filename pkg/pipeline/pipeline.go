// Package pipeline fetches a listing page and turns every linked recipe page
// into a record, one concurrent task per link.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/kulinaria-scraper/models"
	"github.com/dtnitsch/kulinaria-scraper/pkg/parser"
)

// Error types attached to failed tasks.
const (
	ErrorTypeFetch = "fetch_error"
	ErrorTypeParse = "parse_error"
)

// PageFetcher retrieves the body of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TaskResult holds the outcome of a single recipe task. Exactly one of
// Recipe and Err is set.
type TaskResult struct {
	URL       string
	Recipe    *models.Recipe
	Err       error
	ErrorType string
}

// Stats summarises a run.
type Stats struct {
	TotalURLs        int     `json:"total_urls"`
	Successful       int     `json:"successful"`
	Failed           int     `json:"failed"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
}

// RunResult is the outcome of a whole run. Recipes keep listing order.
type RunResult struct {
	Recipes  models.ResultSet
	Failures []TaskResult
	Stats    Stats
}

// Coordinator drives one listing fetch followed by the recipe fan-out.
type Coordinator struct {
	fetcher     PageFetcher
	site        models.SiteConfig
	concurrency int
	logger      *slog.Logger
}

// New returns a Coordinator. A concurrency of zero or less runs every task at
// once.
func New(fetcher PageFetcher, site models.SiteConfig, concurrency int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		fetcher:     fetcher,
		site:        site,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run scrapes the listing at listingURL, or the configured listing when it is
// empty. Only a failure on the listing page itself is returned as an error;
// recipe failures are collected in RunResult.Failures.
func (c *Coordinator) Run(ctx context.Context, listingURL string) (*RunResult, error) {
	startTime := time.Now()
	if listingURL == "" {
		listingURL = c.site.ListingURL()
	}

	c.logger.Info("Fetching listing page", "url", listingURL, "max_count", c.site.MaxCount)
	listingHTML, err := c.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	entries, err := parser.ParseListing(listingHTML, c.site.MaxCount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		abs, err := c.site.ResolveURL(entry)
		if err != nil {
			c.logger.Warn("Skipping unresolvable recipe link", "href", entry, "error", err)
			continue
		}
		urls = append(urls, abs)
	}

	c.logger.Info("Starting recipe fan-out", "url_count", len(urls), "concurrency", c.concurrency)
	results := c.runTasks(ctx, urls)

	run := &RunResult{
		Recipes:  make(models.ResultSet, 0, len(results)),
		Failures: []TaskResult{},
	}
	for _, result := range results {
		if result.Err != nil {
			c.logger.Warn("Recipe task failed", "url", result.URL, "error", result.Err, "error_type", result.ErrorType)
			run.Failures = append(run.Failures, result)
			continue
		}
		run.Recipes = append(run.Recipes, *result.Recipe)
	}

	run.Stats = Stats{
		TotalURLs:        len(urls),
		Successful:       len(run.Recipes),
		Failed:           len(run.Failures),
		TotalTimeSeconds: time.Since(startTime).Seconds(),
	}
	c.logger.Info("Run finished", "successful", run.Stats.Successful, "failed", run.Stats.Failed)

	return run, nil
}

// runTasks processes every URL concurrently. Each task writes only its own
// slot; tasks never return an error so one failure cannot cancel the rest.
func (c *Coordinator) runTasks(ctx context.Context, urls []string) []TaskResult {
	results := make([]TaskResult, len(urls))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.process(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Coordinator) process(ctx context.Context, url string) TaskResult {
	result := TaskResult{URL: url}

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		result.Err = err
		result.ErrorType = ErrorTypeFetch
		return result
	}

	recipe, err := parser.ParseRecipe(body, url)
	if err != nil {
		result.Err = err
		result.ErrorType = classify(err)
		return result
	}

	result.Recipe = recipe
	return result
}

func classify(err error) string {
	if errors.Is(err, models.ErrNetworkFailure) {
		return ErrorTypeFetch
	}
	return ErrorTypeParse
}
