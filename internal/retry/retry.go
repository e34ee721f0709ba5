// Package retry implements the bounded-attempt policy shared by the LLM
// stages: a fixed (optionally multiplying) delay between attempts and a hard
// attempt cap. Errors marked Permanent short-circuit the loop, which is how
// provider-level failures skip the remaining attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds repeated attempts of a fallible operation.
type Policy struct {
	// MaxAttempts includes the initial attempt. Values below 1 mean 1.
	MaxAttempts int
	// Delay is the pause between attempts. Zero disables sleeping, which
	// tests rely on.
	Delay time.Duration
	// Backoff multiplies Delay after each failed attempt when > 1.
	Backoff float64
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, the attempt cap is exhausted, op returns a
// permanent error, or ctx is cancelled while waiting between attempts. The
// error from the last attempt is returned on exhaustion.
func Do(ctx context.Context, p Policy, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	var last error
	for i := 0; i < attempts; i++ {
		err := op()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err
		if i == attempts-1 {
			break
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			if p.Backoff > 1 {
				delay = time.Duration(float64(delay) * p.Backoff)
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return last
}
