// Package textutil cleans text extracted from scraped markup.
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts s to NFC, collapses every run of Unicode whitespace
// (including non-breaking spaces, tabs, CR and LF) into a single space and
// trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeAll applies Normalize to each element and returns a new slice.
// The result is never nil.
func NormalizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Normalize(item)
	}
	return out
}
