package models

// Recipe represents one fully parsed recipe page.
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	SourceURL   string   `json:"sourceUrl" yaml:"sourceUrl"`
	ImageURL    string   `json:"imageUrl" yaml:"imageUrl"`
	Author      string   `json:"author" yaml:"author"`
	Steps       []string `json:"steps" yaml:"steps"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Description string   `json:"description" yaml:"description"`
}

// ResultSet is the collection of recipes produced by a single pipeline run.
// Order follows the listing page but consumers should treat it as a set.
type ResultSet []Recipe

// ListingEntry is a relative recipe link found on a listing page.
type ListingEntry = string

