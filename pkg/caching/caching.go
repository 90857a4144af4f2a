package caching

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Cache provides a simple file-based cache of page bodies with a TTL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an item from the cache.
// It returns the data and true if the item is found and not expired.
// Otherwise, it returns nil and false.
func (c *Cache) Get(url string) ([]byte, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, false // Cache miss
	}
	if err != nil {
		return nil, false
	}

	// Check if expired
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false // Cache miss (expired)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false // Cache miss (read error)
	}

	return data, true // Cache hit
}

// Set adds an item to the cache. The file is written under a temporary name
// and renamed into place so concurrent readers never see a partial body.
func (c *Cache) Set(url string, data []byte) error {
	tmp, err := os.CreateTemp(c.path, c.key(url)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(c.path, c.key(url))); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// PageFetcher is the subset of the HTTP fetcher the cache wraps.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CachingFetcher serves fresh pages from the cache and falls back to the
// wrapped fetcher on a miss, storing what it fetched.
type CachingFetcher struct {
	next   PageFetcher
	cache  *Cache
	logger *slog.Logger
}

// NewCachingFetcher wraps next with cache.
func NewCachingFetcher(next PageFetcher, cache *Cache, logger *slog.Logger) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache, logger: logger}
}

// Fetch implements PageFetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if data, ok := f.cache.Get(url); ok {
		f.logger.Debug("Page found in cache", "url", url)
		return string(data), nil
	}

	body, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := f.cache.Set(url, []byte(body)); err != nil {
		f.logger.Warn("Failed to cache page", "url", url, "error", err)
	}
	return body, nil
}
