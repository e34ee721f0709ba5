package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// StaticFetcher issues a plain GET without rendering. It cannot log in or
// expand collapsed sections, so profiles behind an auth wall come back as
// the public shell; it exists for pages that do not need a browser and for
// tests.
type StaticFetcher struct {
	HTTPClient *http.Client
	// MaxAttempts includes the initial attempt. Minimum 1. Only transient
	// failures (5xx) are retried.
	MaxAttempts int
}

func (f *StaticFetcher) client() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (f *StaticFetcher) Fetch(ctx context.Context, url string, opts Options) (string, error) {
	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	ctx, cancel := context.WithTimeout(ctx, opts.pageTimeout())
	defer cancel()

	var lastErr error
	for i := 0; i < attempts; i++ {
		body, err := f.tryOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		var te *transientError
		if !errors.As(err, &te) || i == attempts-1 {
			break
		}
		select {
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (f *StaticFetcher) tryOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", &transientError{err: fmt.Errorf("server error: %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Decode to UTF-8 based on the declared or sniffed charset.
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
