// Package browse fetches rendered profile pages. The pipeline treats the
// fetcher as an opaque collaborator: a URL and behavioral options go in,
// rendered markup or a failure comes out.
package browse

import (
	"context"
	"time"
)

// LoginMode selects how the fetcher authenticates before loading a page.
type LoginMode string

const (
	// LoginNone loads the page anonymously. Most profiles redirect to an
	// auth wall in this mode.
	LoginNone LoginMode = "none"
	// LoginCredentials signs in with email and password first.
	LoginCredentials LoginMode = "credentials"
	// LoginStoredSession reuses a persistent browser profile directory that
	// already holds a session.
	LoginStoredSession LoginMode = "stored_session"
)

// Credentials are the sign-in identity for LoginCredentials mode.
type Credentials struct {
	Email    string
	Password string
}

// Options control one fetch.
type Options struct {
	Headless    bool
	Login       LoginMode
	Credentials Credentials
	// UserDataDir is the persistent browser profile for LoginStoredSession.
	UserDataDir string
	// PageTimeout bounds the whole fetch. Zero means 60s.
	PageTimeout time.Duration
	// SettleDelay is the wait after navigation before reading content.
	// Zero means 5s.
	SettleDelay time.Duration
}

func (o Options) pageTimeout() time.Duration {
	if o.PageTimeout <= 0 {
		return 60 * time.Second
	}
	return o.PageTimeout
}

func (o Options) settleDelay() time.Duration {
	if o.SettleDelay <= 0 {
		return 5 * time.Second
	}
	return o.SettleDelay
}

// Fetcher returns the rendered markup of url. Implementations expand
// collapsed content sections best-effort before capture; expansion failures
// are logged, never fatal.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (string, error)
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
