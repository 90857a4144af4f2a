package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// CardSelector matches one recipe card on a category listing page.
const CardSelector = "div.box.box--author.kulinaria-col-3.box--massonry"

// ParseListing returns the recipe links of up to maxCount cards in document
// order. A page without cards yields an empty slice, not an error. Cards that
// carry no link are skipped and do not count towards maxCount.
func ParseListing(html string, maxCount int) ([]models.ListingEntry, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &models.ParseError{Err: fmt.Errorf("%w: empty listing page", models.ErrMalformedMarkup)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParseError{Err: fmt.Errorf("%w: %v", models.ErrMalformedMarkup, err)}
	}

	if maxCount <= 0 {
		return []models.ListingEntry{}, nil
	}

	cards := doc.Find(CardSelector)
	links := make([]models.ListingEntry, 0, min(maxCount, cards.Length()))
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		href, ok := card.Find("a[href]").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return true
		}
		links = append(links, href)
		return len(links) < maxCount
	})

	return links, nil
}
