// Package mapreduce counts ingredient words across recipes.
package mapreduce

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// Term is a word and the number of times it was seen.
type Term struct {
	Word  string
	Count int
}

// units are measure words that say nothing about the ingredient itself.
var units = map[string]struct{}{
	"გ": {}, "გრ": {}, "კგ": {}, "მლ": {}, "ლ": {}, "ც": {}, "ცალი": {},
	"ჭიქა": {}, "ჭიქის": {}, "კოვზი": {}, "კოვზის": {}, "ჩ/კ": {}, "ს/კ": {},
	"g": {}, "kg": {}, "ml": {}, "l": {}, "pcs": {}, "tbsp": {}, "tsp": {},
}

// Map counts the ingredient words of a single recipe.
func Map(recipe models.Recipe) map[string]int {
	counts := make(map[string]int)
	for _, ingredient := range recipe.Ingredients {
		for _, word := range strings.Fields(strings.ToLower(ingredient)) {
			word = strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '/'
			})
			if isValidKeyword(word) {
				counts[word]++
			}
		}
	}
	return counts
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// TopTerms returns the n most frequent words, ties broken alphabetically.
func TopTerms(wordCounts map[string]int, n int) []Term {
	terms := make([]Term, 0, len(wordCounts))
	for k, v := range wordCounts {
		terms = append(terms, Term{Word: k, Count: v})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Word < terms[j].Word
	})

	if n < 0 {
		n = 0
	}
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// isValidKeyword drops quantities, units and single characters
func isValidKeyword(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	if _, isUnit := units[word]; isUnit {
		return false
	}
	return strings.IndexFunc(word, unicode.IsLetter) >= 0
}
