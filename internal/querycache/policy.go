package querycache

import (
	"context"
	"errors"
	"math"
	"time"
)

// Forever disables expiry when used as a stale or GC time.
const Forever = time.Duration(math.MaxInt64)

// DefaultRetries is the number of retries after the first failed attempt.
const DefaultRetries = 3

// Policy controls freshness, retention and retry for one entity kind.
type Policy struct {
	// StaleTime is how long a successful result is served without a fetch.
	// Zero means every read fetches.
	StaleTime time.Duration
	// GCTime is how long an unobserved entry is kept after its last use.
	GCTime time.Duration
	// Retries is the number of retries after a failed attempt.
	Retries int
	// ShouldRetry decides whether a failure is transient. Nil means
	// DefaultShouldRetry.
	ShouldRetry func(error) bool
}

// DefaultPolicy applies to kinds missing from the policy table.
var DefaultPolicy = Policy{
	StaleTime: 0,
	GCTime:    5 * time.Minute,
	Retries:   DefaultRetries,
}

func (p Policy) retryable(err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return DefaultShouldRetry(err)
}

// DefaultShouldRetry retries everything except cancellation, errors that
// declare themselves non-retryable and 4xx statuses.
func DefaultShouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var s interface{ HTTPStatus() int }
	if errors.As(err, &s) {
		code := s.HTTPStatus()
		return code < 400 || code >= 500
	}
	return true
}

func expired(since time.Time, now time.Time, d time.Duration) bool {
	if d == Forever {
		return false
	}
	return now.Sub(since) >= d
}
