package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Default retry settings.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
)

// Policy is a bounded exponential backoff for a single remote call.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the wait before the first retry; it doubles each retry.
	InitialDelay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns 3 retries starting at one second: waits of 1s, 2s, 4s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
	}
}

// Do runs op, retrying transient failures with exponential backoff.
// Non-transient errors and the last transient error are returned unchanged;
// non-transient errors return immediately with no wait.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := p.InitialDelay

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if retries == 0 || !IsTransient(err) {
			return result, err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("status", StatusCode(err)).
			Int("retries_left", retries).
			Dur("delay", delay).
			Msgf("API error. Retrying in %dms...", delay.Milliseconds())

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		if serr := sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}

		retries--
		delay *= 2
	}
}

// IsTransient reports whether err is worth retrying: HTTP 429, 500 or 503,
// or a message mentioning "429", "quota", "xhr error" or "network".
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch StatusCode(err) {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "xhr error") ||
		strings.Contains(msg, "network")
}

// StatusCode extracts an HTTP-like status code from err, or 0 if none.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
