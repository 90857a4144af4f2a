package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/kulinaria-scraper/internal/report"
	"github.com/dtnitsch/kulinaria-scraper/internal/scrape"
	"github.com/dtnitsch/kulinaria-scraper/models"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// scrapeFlags are accepted both by the default action and by `scrape`, before
// or after the command name.
func scrapeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "listing-url",
			Usage: "Listing page to scrape (default: site.base_url + site.listing_path)",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Also export the scraped recipes to this .json or .yaml file",
		},
		&cli.BoolFlag{
			Name:  "no-store",
			Usage: "Do not touch the recipe store (skips the analytics report)",
		},
		&cli.IntFlag{
			Name:  "top-words",
			Usage: "Append the N most common ingredient words to the report",
		},
	}
}

func newApp() *cli.App {
	globalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yaml",
			Usage:   "Path to the YAML config file (missing file means defaults)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: fmt.Sprintf("Site root (default %q)", models.DefaultBaseURL),
		},
		&cli.IntFlag{
			Name:  "max-count",
			Usage: fmt.Sprintf("Maximum number of recipes to scrape (default %d)", models.DefaultMaxCount),
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum concurrent recipe fetches, 0 for one task per recipe",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: fmt.Sprintf("Per-request timeout (default %s)", models.DefaultTimeout),
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Cache fetched pages in this directory",
		},
		&cli.DurationFlag{
			Name:  "cache-ttl",
			Usage: fmt.Sprintf("How long cached pages stay fresh (default %s)", models.DefaultCacheTTL),
		},
		&cli.StringFlag{
			Name:  "db-driver",
			Usage: "Recipe store driver: sqlite or postgres",
		},
		&cli.StringFlag{
			Name:  "db-dsn",
			Usage: "Recipe store DSN (sqlite file path or postgres connection string)",
		},
	}

	return &cli.App{
		Name:   "kulinaria",
		Usage:  "Scrape kulinaria.ge recipes into a database and report on them",
		Flags:  append(globalFlags, scrapeFlags()...),
		Action: scrape.ScrapeAction,
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "Scrape the listing page, replace the stored recipes and print the report",
				Flags:  scrapeFlags(),
				Action: scrape.ScrapeAction,
			},
			{
				Name:  "stats",
				Usage: "Print the analytics report for the stored recipes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-words",
						Usage: "Append the N most common ingredient words to the report",
					},
				},
				Action: report.StatsAction,
			},
			{
				Name:   "clear",
				Usage:  "Remove every stored recipe",
				Action: report.ClearAction,
			},
			{
				Name:  "runs",
				Usage: "List recent scrape runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Number of runs to show, 0 for all",
					},
					&cli.Int64Flag{
						Name:  "run",
						Usage: "Show the failed recipe pages of this run",
					},
				},
				Action: report.RunsAction,
			},
		},
	}
}
