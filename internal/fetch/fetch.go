// Package fetch retrieves raw feed payloads with a disk-backed TTL cache
// and bounded retries for transient HTTP failures.
package fetch

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Some feeds reject default Go clients, so requests carry a browser
// identity.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

const (
	requestTimeout = 20 * time.Second
	maxAttempts    = 4
	backoffBase    = 500 * time.Millisecond
	backoffCap     = 5 * time.Second
	maxPayloadSize = 10 << 20
)

// HTTPError is a non-2xx response from a feed host.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}

// Client fetches URLs through a per-URL disk cache. Cache entries are
// files named md5(url).bin holding the fetch timestamp (unix seconds as
// text), a newline, and the raw payload. Entries younger than the TTL
// are served without touching the network.
type Client struct {
	http     *http.Client
	cacheDir string
	ttl      time.Duration
}

func NewClient(cacheDir string, ttl time.Duration) (*Client, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Client{
		http:     &http.Client{Timeout: requestTimeout},
		cacheDir: cacheDir,
		ttl:      ttl,
	}, nil
}

func (c *Client) cachePath(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(c.cacheDir, fmt.Sprintf("%x.bin", sum))
}

func (c *Client) readCache(url string, now time.Time) ([]byte, bool) {
	data, err := os.ReadFile(c.cachePath(url))
	if err != nil {
		return nil, false
	}
	line, payload, found := bytes.Cut(data, []byte("\n"))
	if !found || len(payload) == 0 {
		return nil, false
	}
	stamp, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return nil, false
	}
	if c.ttl <= 0 || now.Sub(time.Unix(stamp, 0)) >= c.ttl {
		return nil, false
	}
	return payload, true
}

func (c *Client) writeCache(url string, payload []byte, now time.Time) error {
	data := append([]byte(strconv.FormatInt(now.Unix(), 10)+"\n"), payload...)
	return os.WriteFile(c.cachePath(url), data, 0o644)
}

// Fetch returns the payload for url, from cache when fresh. Network
// errors and retryable statuses (429, 500, 502, 503, 504) are retried
// with capped exponential backoff; other HTTP errors fail immediately
// with *HTTPError. A successful fetch overwrites the cache entry; the
// last writer wins, which is fine for idempotent feed payloads.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if payload, ok := c.readCache(url, time.Now()); ok {
		slog.Debug("feed cache hit", "url", url)
		return payload, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		payload, retry, err := c.get(ctx, url)
		if err == nil {
			if werr := c.writeCache(url, payload, time.Now()); werr != nil {
				slog.Warn("feed cache write failed", "url", url, "err", werr)
			}
			return payload, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetching %s: giving up after %d attempts: %w", url, maxAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, url string) (payload []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection resets are worth another try.
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retryableStatus(resp.StatusCode), &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	payload, err = io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, true, err
	}
	return payload, false, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoff(attempt int) time.Duration {
	d := backoffBase << attempt
	if d > backoffCap {
		return backoffCap
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats reports the number of cache entries and their total size.
func (c *Client) Stats() (entries int, bytes int64, err error) {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, "*.bin"))
	if err != nil {
		return 0, 0, err
	}
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}

// Clear removes all cache entries and returns how many were deleted.
func (c *Client) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, "*.bin"))
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
