package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/kulinaria-scraper/internal/common"
	"github.com/dtnitsch/kulinaria-scraper/pkg/analytics"
	dbpkg "github.com/dtnitsch/kulinaria-scraper/pkg/db"
)

// StatsAction prints the analytics report over the recipes already stored.
func StatsAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	database, err := common.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	report, err := analytics.Build(c.Context, database, common.FlagContext(c, "top-words").Int("top-words"))
	if err != nil {
		return err
	}
	return report.Print(c.App.Writer)
}

// ClearAction removes every stored recipe. Run history is kept.
func ClearAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	database, err := common.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ClearAll(c.Context); err != nil {
		return err
	}
	logger.Info("Cleared recipe store", "driver", database.Driver())
	return nil
}

// RunsAction lists recent runs, or the failures of one run when --run is given.
func RunsAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	database, err := common.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	w := c.App.Writer
	if c.IsSet("run") {
		runID := c.Int64("run")
		failures, err := database.GetRunFailures(c.Context, runID)
		if err != nil {
			return err
		}
		printFailures(w, runID, failures)
		return nil
	}

	runs, err := database.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-6s %-8s %-8s %s\n", "ID", "Created", "URLs", "Success", "Failed", "Listing")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-6d %-8d %-8d %s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.URLCount,
			r.SuccessCount,
			r.FailedCount,
			r.ListingURL,
		)
	}
	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	return nil
}

func printFailures(w io.Writer, runID int64, failures []dbpkg.RunFailure) {
	if len(failures) == 0 {
		fmt.Fprintf(w, "Run %d had no failures\n", runID)
		return
	}

	fmt.Fprintf(w, "Run %d failures (%d):\n", runID, len(failures))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, f := range failures {
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, f.ErrorType, f.URL)
		if f.ErrorMessage != "" {
			fmt.Fprintf(w, "    Error: %s\n", f.ErrorMessage)
		}
	}
}
