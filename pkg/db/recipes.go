package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

const insertRecipeQuery = `
	INSERT INTO recipes (name, source_url, image_url, author, steps, ingredients, description)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// ClearAll removes every stored recipe.
func (db *DB) ClearAll(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM recipes"); err != nil {
		return &models.StorageError{Op: "clear", Err: fmt.Errorf("failed to delete recipes: %w", err)}
	}
	return nil
}

// InsertMany stores recipes in a single transaction and returns their
// generated IDs in input order. Nothing is written if any insert fails.
func (db *DB) InsertMany(ctx context.Context, recipes models.ResultSet) ([]int64, error) {
	if len(recipes) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.StorageError{Op: "insert", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		steps, err := encodeList(r.Steps)
		if err != nil {
			return nil, &models.StorageError{Op: "insert", Err: fmt.Errorf("failed to encode steps: %w", err)}
		}
		ingredients, err := encodeList(r.Ingredients)
		if err != nil {
			return nil, &models.StorageError{Op: "insert", Err: fmt.Errorf("failed to encode ingredients: %w", err)}
		}

		id, err := db.insertReturningID(ctx, tx, insertRecipeQuery, "id",
			r.Name, r.SourceURL, r.ImageURL, r.Author, steps, ingredients, r.Description)
		if err != nil {
			return nil, &models.StorageError{Op: "insert", Err: fmt.Errorf("failed to insert recipe %s: %w", r.SourceURL, err)}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, &models.StorageError{Op: "insert", Err: fmt.Errorf("failed to commit: %w", err)}
	}
	return ids, nil
}

// ListRecipes returns every stored recipe in insertion order.
func (db *DB) ListRecipes(ctx context.Context) (models.ResultSet, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, source_url, image_url, author, steps, ingredients, description
		FROM recipes
		ORDER BY id
	`)
	if err != nil {
		return nil, &models.StorageError{Op: "list", Err: fmt.Errorf("failed to list recipes: %w", err)}
	}
	defer rows.Close()

	recipes := models.ResultSet{}
	for rows.Next() {
		var r models.Recipe
		var steps, ingredients sql.NullString
		if err := rows.Scan(&r.Name, &r.SourceURL, &r.ImageURL, &r.Author, &steps, &ingredients, &r.Description); err != nil {
			return nil, &models.StorageError{Op: "list", Err: fmt.Errorf("failed to scan recipe: %w", err)}
		}
		if r.Steps, err = decodeList(steps); err != nil {
			return nil, &models.StorageError{Op: "list", Err: fmt.Errorf("failed to decode steps of %s: %w", r.SourceURL, err)}
		}
		if r.Ingredients, err = decodeList(ingredients); err != nil {
			return nil, &models.StorageError{Op: "list", Err: fmt.Errorf("failed to decode ingredients of %s: %w", r.SourceURL, err)}
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list", Err: err}
	}

	return recipes, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw sql.NullString) ([]string, error) {
	items := []string{}
	if !raw.Valid || raw.String == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
