package querycache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	retryInitialInterval = time.Second
	retryMaxInterval     = 30 * time.Second
)

func newBackOff(ctx context.Context, retries int) backoff.BackOff {
	if retries <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     retryInitialInterval,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         retryMaxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// fetch runs fn under the policy's retry schedule. Errors the policy does
// not retry end the loop at once.
func (c *Cache) fetch(ctx context.Context, key Key, pol Policy, fn func(context.Context) (any, error)) (any, error) {
	var data any
	op := func() error {
		v, err := fn(ctx)
		if err == nil {
			data = v
			return nil
		}
		if ctx.Err() != nil || !pol.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		c.metrics.Retry(key.Kind)
		c.logger.Warn("fetch failed, retrying",
			zap.Stringer("key", key),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(op, newBackOff(ctx, pol.Retries), notify, timer); err != nil {
		return nil, err
	}
	return data, nil
}
