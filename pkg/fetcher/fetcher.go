package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 10 * 1024 * 1024

// ErrBodyTooLarge is wrapped in the FetchError for an oversized response.
var ErrBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", MaxBodyBytes)

// Fetcher issues GET requests through one shared, pooled HTTP client.
// It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds the shared client. TLS certificates are verified unless
// cfg.InsecureSkipVerify is set. fanOut is the most requests the caller keeps
// in flight at once; the idle pool keeps that many connections per host.
func NewFetcher(cfg models.FetchConfig, fanOut int) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	transport.MaxIdleConnsPerHost = max(transport.MaxIdleConnsPerHost, cfg.Concurrency, fanOut)

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Fetch returns the response body of rawURL as text. The status code is not
// inspected; any body the server sends is returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", &models.FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &models.FetchError{URL: rawURL, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &models.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return "", &models.FetchError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(body) > MaxBodyBytes {
		return "", &models.FetchError{URL: rawURL, Err: ErrBodyTooLarge}
	}
	return string(body), nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: must be an absolute http(s) URL", rawURL)
	}
	return nil
}
