// Package storage writes scrape results to files.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// Format is a supported export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export file extension %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Export writes recipes to path as JSON or YAML depending on its extension.
// An empty result set is written as an empty list.
func Export(path string, recipes models.ResultSet) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if recipes == nil {
		recipes = models.ResultSet{}
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(recipes, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(recipes)
	}
	if err != nil {
		return fmt.Errorf("failed to encode recipes as %s: %w", format, err)
	}

	return SaveFile(path, data)
}

// SaveFile writes content through a temporary file so readers never see a
// partial export.
func SaveFile(filePath string, content []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set export permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to save export: %w", err)
	}
	return nil
}
