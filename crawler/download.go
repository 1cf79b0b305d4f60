// Package crawler drives the listing, download and extraction pipeline over a wallpaper-plugin catalog.
package crawler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/log"
	"github.com/kabegame/kabegame/network"
	"github.com/kabegame/kabegame/util"
)

// downloadChunkSize is the buffer size for streaming response bodies to disk.
const downloadChunkSize = 8192

// Downloader retrieves remote archives with rate-limit aware bounded retries.
type Downloader struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration

	// sleep is swappable so tests can observe backoff without waiting.
	sleep func(time.Duration)
}

// NewDownloader returns a Downloader using the shared network client.
func NewDownloader(maxRetries int, retryDelay time.Duration) *Downloader {
	return &Downloader{
		client:     network.Client,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      time.Sleep,
	}
}

// Download streams the resource at url to dest, creating parent directories
// as needed. A 429 response waits retryDelay × (attempt+1) and retries; so do
// transport failures and other non-2xx statuses. After maxRetries attempts
// the last error is returned and no partial file is left behind.
func (d *Downloader) Download(url, dest string) (written int64, err error) {
	var lastErr error

	for attempt := 0; attempt < d.maxRetries; attempt++ {
		req, err := network.Request(url)
		if err != nil {
			// A malformed URL cannot succeed on retry.
			return 0, fmt.Errorf("build request: %w", err)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			log.Warnf("download %s: %v (attempt %d/%d)", url, err, attempt+1, d.maxRetries)
			if attempt < d.maxRetries-1 {
				d.backoff(attempt)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			util.Ignore(resp.Body.Close)
			lastErr = fmt.Errorf("rate limited (429)")
			log.Warnf("download %s: rate limited, waiting %s", url, d.retryDelay*time.Duration(attempt+1))
			// The rate limiter's wait is honored even on the final attempt.
			d.backoff(attempt)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			util.Ignore(resp.Body.Close)
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			if attempt < d.maxRetries-1 {
				d.backoff(attempt)
			}
			continue
		}

		written, err = d.save(resp.Body, dest)
		util.Ignore(resp.Body.Close)
		if err == nil {
			return written, nil
		}

		lastErr = err
		if attempt < d.maxRetries-1 {
			d.backoff(attempt)
		}
	}

	return 0, fmt.Errorf("download %s after %d attempts: %w", url, d.maxRetries, lastErr)
}

// backoff waits the escalating retry delay for the given zero-based attempt.
func (d *Downloader) backoff(attempt int) {
	d.sleep(d.retryDelay * time.Duration(attempt+1))
}

// save streams body to dest in fixed-size chunks, removing the partial file on failure.
func (d *Downloader) save(body io.Reader, dest string) (int64, error) {
	fs := filesystem.API()

	if err := fs.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	f, err := fs.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.CopyBuffer(f, body, make([]byte, downloadChunkSize))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A truncated file must not be mistaken for a completed download.
		_ = fs.Remove(dest)
		return 0, fmt.Errorf("write file: %w", err)
	}

	return written, nil
}
