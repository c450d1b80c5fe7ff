// Package retrylimit throttles outbound API calls and retries the ones the
// remote side asked us to slow down for.
//
// Example usage:
//
//	lim := retrylimit.NewAdaptiveLimiter(1, 0.2, 5, 3)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultConfig(), func() error {
//	    return postMessage()
//	})
package retrylimit

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate drops when the remote side
// rate-limits us and slowly recovers on success. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	initial   rate.Limit
	min       rate.Limit
	max       rate.Limit
	lastLimit time.Time
}

// NewAdaptiveLimiter creates a limiter starting at perSecond requests per second,
// kept between min and max, with the given burst.
func NewAdaptiveLimiter(perSecond, min, max float64, burst int) *AdaptiveLimiter {
	if burst < 1 {
		burst = 1
	}
	if min <= 0 {
		min = perSecond
	}
	if max < perSecond {
		max = perSecond
	}
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		initial: rate.Limit(perSecond),
		min:     rate.Limit(min),
		max:     rate.Limit(max),
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success nudges the rate back towards its initial value once no rate limit
// has been seen for a while.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.limiter.Limit()
	if cur >= a.initial || time.Since(a.lastLimit) < 10*time.Second {
		return
	}
	a.set(cur * 1.25)
	if a.limiter.Limit() > a.initial {
		a.set(a.initial)
	}
}

// RateLimited halves the rate.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastLimit = time.Now()
	a.set(a.limiter.Limit() / 2)
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	if l > a.max {
		l = a.max
	} else if l < a.min {
		l = a.min
	}
	a.limiter.SetLimit(l)
}

// HTTPError is implemented by errors that carry an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// RetryAfterError is implemented by errors that say how long to back off.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// FatalError stops retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Classifier reports whether err is worth retrying.
type Classifier func(error) bool

// DefaultClassifier retries rate limits and 5xx responses.
func DefaultClassifier(err error) bool {
	if _, ok := retryAfter(err); ok {
		return true
	}
	code, ok := statusCode(err)
	return ok && (code == http.StatusTooManyRequests || code >= 500)
}

type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Classifier   Classifier
	Logger       zerolog.Logger
}

// DefaultConfig suits chat API calls: a few quick attempts.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		Classifier:   DefaultClassifier,
		Logger:       zerolog.Nop(),
	}
}

// Do runs fn, waiting on lim before each attempt (lim may be nil), and retries
// errors accepted by cfg.Classifier with exponential backoff. A RetryAfterError
// overrides the backoff delay for that attempt.
func Do(ctx context.Context, lim *AdaptiveLimiter, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Classifier == nil {
		cfg.Classifier = DefaultClassifier
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}

		var fatal *FatalError
		if errors.As(err, &fatal) || !cfg.Classifier(err) || attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if d, ok := retryAfter(err); ok {
			wait = d
			if lim != nil {
				lim.RateLimited()
			}
		} else if cfg.Jitter {
			wait = addJitter(wait)
		}

		cfg.Logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal.Err
	}
	return err
}

// addJitter adds up to 25% random jitter.
func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}

func retryAfter(err error) (time.Duration, bool) {
	var ra RetryAfterError
	if errors.As(err, &ra) {
		return ra.RetryAfter(), true
	}
	return 0, false
}

func statusCode(err error) (int, bool) {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), true
	}
	return 0, false
}
