package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// AuthorCount is the number of stored recipes written by one author.
type AuthorCount struct {
	Author string
	Count  int
}

// RecipeCount pairs a recipe name with the length of one of its lists.
type RecipeCount struct {
	Name  string
	Count int
}

// TopAuthor returns the author with the most recipes. Ties go to the
// alphabetically first author. The bool is false when nothing is stored.
func (db *DB) TopAuthor(ctx context.Context) (AuthorCount, bool, error) {
	var top AuthorCount
	err := db.QueryRowContext(ctx, `
		SELECT author, COUNT(*) AS recipe_count
		FROM recipes
		GROUP BY author
		ORDER BY recipe_count DESC, author ASC
		LIMIT 1
	`).Scan(&top.Author, &top.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthorCount{}, false, nil
	}
	if err != nil {
		return AuthorCount{}, false, &models.StorageError{Op: "query", Err: fmt.Errorf("failed to query top author: %w", err)}
	}
	return top, true, nil
}

// IngredientCounts returns the ingredient count of every recipe in insertion order.
func (db *DB) IngredientCounts(ctx context.Context) ([]RecipeCount, error) {
	return db.listLengths(ctx, "ingredients")
}

// StepCounts returns the step count of every recipe in insertion order.
func (db *DB) StepCounts(ctx context.Context) ([]RecipeCount, error) {
	return db.listLengths(ctx, "steps")
}

func (db *DB) listLengths(ctx context.Context, column string) ([]RecipeCount, error) {
	query := fmt.Sprintf("SELECT name, %s FROM recipes ORDER BY id", db.jsonArrayLength(column))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &models.StorageError{Op: "query", Err: fmt.Errorf("failed to count %s: %w", column, err)}
	}
	defer rows.Close()

	counts := []RecipeCount{}
	for rows.Next() {
		var c RecipeCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, &models.StorageError{Op: "query", Err: fmt.Errorf("failed to scan %s count: %w", column, err)}
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "query", Err: err}
	}
	return counts, nil
}
