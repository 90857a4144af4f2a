package caching

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls.Add(1)
	return f.body, f.err
}

func TestCache_SetGet(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "pages"), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("https://kulinaria.ge/a")
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, c.Set("https://kulinaria.ge/a", []byte("body-a")))
	data, ok := c.Get("https://kulinaria.ge/a")
	require.True(t, ok)
	assert.Equal(t, "body-a", string(data))

	_, ok = c.Get("https://kulinaria.ge/b")
	assert.False(t, ok, "different URL must miss")
}

func TestCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Minute)
	require.NoError(t, err)

	require.NoError(t, c.Set("https://kulinaria.ge/a", []byte("old")))
	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(dir, c.key("https://kulinaria.ge/a")), old, old))

	_, ok := c.Get("https://kulinaria.ge/a")
	assert.False(t, ok)
}

func TestCache_SetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Hour)
	require.NoError(t, err)

	require.NoError(t, c.Set("https://kulinaria.ge/a", []byte("one")))
	require.NoError(t, c.Set("https://kulinaria.ge/a", []byte("two")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, ok := c.Get("https://kulinaria.ge/a")
	require.True(t, ok)
	assert.Equal(t, "two", string(data))
}

func TestCachingFetcher(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	next := &countingFetcher{body: "<html></html>"}
	f := NewCachingFetcher(next, c, discardLogger())

	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), "https://kulinaria.ge/a")
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", body)
	}
	assert.Equal(t, int32(1), next.calls.Load(), "only the first fetch should reach the network")
}

func TestCachingFetcher_ErrorNotCached(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	boom := errors.New("boom")
	next := &countingFetcher{err: boom}
	f := NewCachingFetcher(next, c, discardLogger())

	_, err = f.Fetch(context.Background(), "https://kulinaria.ge/a")
	assert.ErrorIs(t, err, boom)
	_, err = f.Fetch(context.Background(), "https://kulinaria.ge/a")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), next.calls.Load())
}
