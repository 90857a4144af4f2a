// Package analytics builds the summary report printed after a scrape.
package analytics

import (
	"context"
	"fmt"
	"io"

	"github.com/dtnitsch/kulinaria-scraper/models"
	"github.com/dtnitsch/kulinaria-scraper/pkg/db"
	"github.com/dtnitsch/kulinaria-scraper/pkg/mapreduce"
)

// Separator is printed between report sections.
const Separator = "#####################################"

// Source is the read side of the recipe store.
type Source interface {
	TopAuthor(ctx context.Context) (db.AuthorCount, bool, error)
	IngredientCounts(ctx context.Context) ([]db.RecipeCount, error)
	StepCounts(ctx context.Context) ([]db.RecipeCount, error)
	ListRecipes(ctx context.Context) (models.ResultSet, error)
}

// Report holds the results of every analytics query.
type Report struct {
	TopAuthor        *db.AuthorCount
	IngredientCounts []db.RecipeCount
	StepCounts       []db.RecipeCount
	// TopIngredientWords is only filled when requested.
	TopIngredientWords []mapreduce.Term
}

// Build runs the analytics queries against source. topWords > 0 also counts
// the most frequent ingredient words across all stored recipes.
func Build(ctx context.Context, source Source, topWords int) (*Report, error) {
	report := &Report{}

	top, found, err := source.TopAuthor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find top author: %w", err)
	}
	if found {
		report.TopAuthor = &top
	}

	if report.IngredientCounts, err = source.IngredientCounts(ctx); err != nil {
		return nil, fmt.Errorf("failed to count ingredients: %w", err)
	}
	if report.StepCounts, err = source.StepCounts(ctx); err != nil {
		return nil, fmt.Errorf("failed to count steps: %w", err)
	}

	if topWords > 0 {
		recipes, err := source.ListRecipes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list recipes: %w", err)
		}
		intermediate := make([]map[string]int, 0, len(recipes))
		for _, r := range recipes {
			intermediate = append(intermediate, mapreduce.Map(r))
		}
		report.TopIngredientWords = mapreduce.TopTerms(mapreduce.Reduce(intermediate), topWords)
	}

	return report, nil
}

// Print writes the report in its console form.
func (r *Report) Print(w io.Writer) error {
	ew := &errWriter{w: w}

	if r.TopAuthor != nil {
		ew.printf("Author: %s, Number of Recipes: %d\n", r.TopAuthor.Author, r.TopAuthor.Count)
	} else {
		ew.printf("No authors found.\n")
	}

	ew.printf("%s\n", Separator)
	printCounts(ew, r.IngredientCounts, "Ingredients count")

	ew.printf("%s\n", Separator)
	printCounts(ew, r.StepCounts, "Steps count")

	if len(r.TopIngredientWords) > 0 {
		ew.printf("%s\n", Separator)
		ew.printf("Top ingredient words:\n")
		for i, term := range r.TopIngredientWords {
			ew.printf("%d. %s: %d\n", i+1, term.Word, term.Count)
		}
	}

	return ew.err
}

func printCounts(ew *errWriter, counts []db.RecipeCount, label string) {
	if len(counts) == 0 {
		ew.printf("No data found\n")
		return
	}
	for _, c := range counts {
		ew.printf("Recipe: %s ---> %s: %d\n", c.Name, label, c.Count)
	}
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
