package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dtnitsch/kulinaria-scraper/models"
	"github.com/dtnitsch/kulinaria-scraper/pkg/textutil"
)

// Field names reported by a missing-field ParseError.
const (
	FieldName        = "name"
	FieldImageURL    = "imageUrl"
	FieldAuthor      = "author"
	FieldSteps       = "steps"
	FieldIngredients = "ingredients"
	FieldDescription = "description"
)

// ParseRecipe extracts a recipe from a single recipe page. Every block is
// required: if one is missing the page fails with a missing-field error and
// no partial record is returned.
func ParseRecipe(rawHTML, sourceURL string) (*models.Recipe, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, &models.ParseError{URL: sourceURL, Err: fmt.Errorf("%w: empty recipe page", models.ErrMalformedMarkup)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &models.ParseError{URL: sourceURL, Err: fmt.Errorf("%w: %v", models.ErrMalformedMarkup, err)}
	}

	recipe := &models.Recipe{SourceURL: sourceURL}

	// 1. Title
	title := doc.Find("div.post__title").First().Find("h1").First()
	if title.Length() == 0 {
		return nil, models.NewMissingField(sourceURL, FieldName)
	}
	recipe.Name = textutil.Normalize(title.Text())

	// 2. Image
	src, ok := doc.Find("div.post__img").First().Find("img").First().Attr("src")
	if !ok {
		return nil, models.NewMissingField(sourceURL, FieldImageURL)
	}
	recipe.ImageURL = strings.TrimSpace(src)

	// 3. Author
	author := doc.Find("div.post__author").First().Find("a").First()
	if author.Length() == 0 {
		return nil, models.NewMissingField(sourceURL, FieldAuthor)
	}
	recipe.Author = textutil.Normalize(author.Text())

	// 4. Steps
	stepList := doc.Find("div.lineList").First()
	if stepList.Length() == 0 {
		return nil, models.NewMissingField(sourceURL, FieldSteps)
	}
	recipe.Steps = extractSteps(stepList)

	// 5. Ingredients
	ingredientList := doc.Find("div.list").First()
	if ingredientList.Length() == 0 {
		return nil, models.NewMissingField(sourceURL, FieldIngredients)
	}
	recipe.Ingredients = extractIngredients(ingredientList)

	// 6. Description
	description := doc.Find("div.post__description").First()
	if description.Length() == 0 {
		return nil, models.NewMissingField(sourceURL, FieldDescription)
	}
	recipe.Description = textutil.Normalize(description.Text())

	return recipe, nil
}

// extractSteps reads the paragraph of every step item. Items without a
// paragraph fall back to their whole text.
func extractSteps(list *goquery.Selection) []string {
	var steps []string
	list.Find("div.lineList__item").Each(func(i int, item *goquery.Selection) {
		text := item.Find("p").First()
		if text.Length() == 0 {
			text = item
		}
		steps = append(steps, text.Text())
	})
	return textutil.NormalizeAll(steps)
}

// extractIngredients joins the text nodes of each ingredient item with a
// single space, so amount and name stay apart even when the markup puts them
// in adjacent elements.
func extractIngredients(list *goquery.Selection) []string {
	var ingredients []string
	list.Find("div.list__item").Each(func(i int, item *goquery.Selection) {
		ingredients = append(ingredients, joinedText(item))
	})
	return textutil.NormalizeAll(ingredients)
}

func joinedText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
