package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

const baseURL = "https://kulinaria.ge/"

var site = models.SiteConfig{
	BaseURL:     baseURL,
	ListingPath: "receptebi/cat/test/",
	MaxCount:    10,
}

// fakeFetcher serves canned pages and errors keyed by absolute URL.
type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", &models.FetchError{URL: url, Err: ctx.Err()}
		}
	}
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return "", &models.FetchError{URL: url, Err: errors.New("connection refused")}
}

func listingPage(slugs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, slug := range slugs {
		fmt.Fprintf(&b, `<div class="box box--author kulinaria-col-3 box--massonry"><a href="/receptebi/view/%s/">%s</a></div>`, slug, slug)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func recipePage(name, author string) string {
	return `<html><body>
<div class="post__title"><h1>` + name + `</h1></div>
<div class="post__img"><img src="/img/` + name + `.jpg"></div>
<div class="post__author"><a href="#">` + author + `</a></div>
<div class="post__description">აღწერა ` + name + `</div>
<div class="list"><div class="list__item"><span>1</span> ფქვილი</div><div class="list__item">მარილი</div></div>
<div class="lineList"><div class="lineList__item"><p>მოზილეთ.</p></div></div>
</body></html>`
}

func recipeURL(slug string) string {
	return baseURL + "receptebi/view/" + slug + "/"
}

func newFake(slugs ...string) *fakeFetcher {
	f := &fakeFetcher{
		pages: map[string]string{site.ListingURL(): listingPage(slugs...)},
		errs:  map[string]error{},
	}
	for _, slug := range slugs {
		f.pages[recipeURL(slug)] = recipePage(slug, "ავტორი")
	}
	return f
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCollectsRecipesInListingOrder(t *testing.T) {
	f := newFake("one", "two", "three")

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, result.Recipes, 3)
	assert.Empty(t, result.Failures)
	for i, slug := range []string{"one", "two", "three"} {
		assert.Equal(t, slug, result.Recipes[i].Name)
		assert.Equal(t, recipeURL(slug), result.Recipes[i].SourceURL)
		assert.Equal(t, []string{"1 ფქვილი", "მარილი"}, result.Recipes[i].Ingredients)
	}
	assert.Equal(t, Stats{TotalURLs: 3, Successful: 3, Failed: 0, TotalTimeSeconds: result.Stats.TotalTimeSeconds}, result.Stats)
}

func TestRunIsolatesFetchFailure(t *testing.T) {
	f := newFake("one", "two", "three")
	f.errs[recipeURL("two")] = &models.FetchError{URL: recipeURL("two"), Err: errors.New("timeout")}

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, result.Recipes, 2)
	assert.Equal(t, "one", result.Recipes[0].Name)
	assert.Equal(t, "three", result.Recipes[1].Name)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, recipeURL("two"), result.Failures[0].URL)
	assert.Equal(t, ErrorTypeFetch, result.Failures[0].ErrorType)
	assert.True(t, errors.Is(result.Failures[0].Err, models.ErrNetworkFailure))
	assert.Nil(t, result.Failures[0].Recipe)
}

func TestRunIsolatesParseFailure(t *testing.T) {
	f := newFake("one", "two", "three")
	f.pages[recipeURL("three")] = `<html><body><div class="post__title"><h1>უცნობი</h1></div></body></html>`

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, result.Recipes, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, ErrorTypeParse, result.Failures[0].ErrorType)
	assert.True(t, errors.Is(result.Failures[0].Err, models.ErrMissingField))
	assert.Equal(t, 1, result.Stats.Failed)
}

func TestRunEmptyListing(t *testing.T) {
	f := newFake()

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, result.Recipes)
	assert.Empty(t, result.Recipes)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{site.ListingURL()}, f.calls)
}

func TestRunListingFetchFailureIsFatal(t *testing.T) {
	f := newFake("one")
	f.errs[site.ListingURL()] = &models.FetchError{URL: site.ListingURL(), Err: errors.New("no route to host")}

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, models.ErrNetworkFailure))
	assert.Len(t, f.calls, 1)
}

func TestRunBlankListingIsFatal(t *testing.T) {
	f := newFake()
	f.pages[site.ListingURL()] = "   "

	_, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedMarkup))
}

func TestRunRespectsMaxCount(t *testing.T) {
	f := newFake("a", "b", "c", "d", "e")
	limited := site
	limited.MaxCount = 2

	result, err := New(f, limited, 0, quietLogger()).Run(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, result.Recipes, 2)
	assert.Equal(t, "a", result.Recipes[0].Name)
	assert.Equal(t, "b", result.Recipes[1].Name)
	assert.Len(t, f.calls, 3)
}

func TestRunExplicitListingURL(t *testing.T) {
	f := newFake("one")
	other := baseURL + "receptebi/cat/other/"
	f.pages[other] = listingPage("one")
	delete(f.pages, site.ListingURL())

	result, err := New(f, site, 0, quietLogger()).Run(context.Background(), other)
	require.NoError(t, err)
	assert.Len(t, result.Recipes, 1)
}

func TestRunIsDeterministic(t *testing.T) {
	f := newFake("one", "two", "three", "four")
	f.errs[recipeURL("three")] = &models.FetchError{URL: recipeURL("three"), Err: errors.New("reset")}
	c := New(f, site, 0, quietLogger())

	first, err := c.Run(context.Background(), "")
	require.NoError(t, err)
	second, err := c.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, first.Recipes, second.Recipes)
	assert.Equal(t, len(first.Failures), len(second.Failures))
}

func TestRunConcurrency(t *testing.T) {
	slugs := []string{"a", "b", "c", "d", "e", "f"}

	t.Run("capped", func(t *testing.T) {
		f := newFake(slugs...)
		f.delay = 20 * time.Millisecond

		result, err := New(f, site, 2, quietLogger()).Run(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, result.Recipes, len(slugs))
		assert.LessOrEqual(t, f.peak.Load(), int32(2))
	})

	t.Run("unbounded", func(t *testing.T) {
		f := newFake(slugs...)
		f.delay = 50 * time.Millisecond

		result, err := New(f, site, 0, quietLogger()).Run(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, result.Recipes, len(slugs))
		assert.Greater(t, f.peak.Load(), int32(1))
	})
}

func TestRunCancelledContext(t *testing.T) {
	f := newFake("one", "two")
	f.delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(f, site, 0, quietLogger()).Run(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
