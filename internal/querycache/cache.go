// Package querycache is a keyed, process-wide cache of fetched values. It
// shares one in-flight fetch per key, serves fresh results without a fetch,
// retries transient failures with exponential backoff and drops entries
// nobody has used for longer than their kind's GC time.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Status is the data status of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Metrics receives cache events.
type Metrics interface {
	Hit(kind Kind)
	Miss(kind Kind)
	Join(kind Kind)
	Retry(kind Kind)
	Fetched(kind Kind, outcome string, elapsed time.Duration)
	Entries(n int)
}

type nopMetrics struct{}

func (nopMetrics) Hit(Kind)                            {}
func (nopMetrics) Miss(Kind)                           {}
func (nopMetrics) Join(Kind)                           {}
func (nopMetrics) Retry(Kind)                          {}
func (nopMetrics) Fetched(Kind, string, time.Duration) {}
func (nopMetrics) Entries(int)                         {}

// Fetch outcomes reported to Metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// ErrorHook is told about every failed fetch after retries.
type ErrorHook func(key Key, err error)

// State is a copy of an entry's bookkeeping.
type State struct {
	Key         Key
	Data        any
	Status      Status
	UpdatedAt   time.Time
	Err         error
	Failures    int
	Observers   int
	Invalidated bool
	Fetching    bool
}

type entry struct {
	key         Key
	data        any
	status      Status
	updatedAt   time.Time
	err         error
	failures    int
	observers   int
	invalidated bool
	lastUsed    time.Time
	flight      *flight
}

type flight struct {
	group   string
	waiters int
	cancel  context.CancelFunc
	// prev is restored when the flight is abandoned.
	prev Status
}

// Cache is safe for concurrent use. Build one per process with New.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	gen      uint64
	policies map[Kind]Policy

	logger   *zap.Logger
	metrics  Metrics
	now      func() time.Time
	newTimer func() backoff.Timer
	onError  ErrorHook
}

// Option configures a Cache.
type Option func(*Cache)

// WithPolicies sets the per kind policy table.
func WithPolicies(p map[Kind]Policy) Option {
	return func(c *Cache) {
		for k, v := range p {
			c.policies[k] = v
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock replaces time.Now for staleness and GC decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTimer replaces the timer used between retries.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *Cache) { c.newTimer = newTimer }
}

// WithErrorHook registers a hook run for every failed fetch.
func WithErrorHook(h ErrorHook) Option {
	return func(c *Cache) { c.onError = h }
}

// New builds an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		policies: make(map[Kind]Policy),
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy for kind.
func (c *Cache) Policy(kind Kind) Policy {
	if p, ok := c.policies[kind]; ok {
		return p
	}
	return DefaultPolicy
}

// Query describes one read through the cache.
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
	// OnError runs once when a fetch started by this query fails for good.
	// It never runs for cancellations.
	OnError func(error)
}

// Get returns the entry's data when it is fresh. Otherwise it joins the
// key's in-flight fetch or starts one. ctx bounds only this caller's wait;
// the fetch is aborted once every waiter has gone.
func Get[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	var zero T
	if q.Fetch == nil {
		return zero, fmt.Errorf("querycache: query %s has no fetch", q.Key)
	}
	v, err := c.get(ctx, q.Key, func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}, q.OnError)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T, want %T", q.Key, v, zero)
	}
	return t, nil
}

func (c *Cache) get(ctx context.Context, key Key, fetch func(context.Context) (any, error), onError func(error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := key.String()
	pol := c.Policy(key.Kind)

	c.mu.Lock()
	e := c.entryLocked(key, id)
	now := c.now()
	e.lastUsed = now
	if e.status == StatusSuccess && !e.invalidated && !expired(e.updatedAt, now, pol.StaleTime) {
		data := e.data
		c.mu.Unlock()
		c.metrics.Hit(key.Kind)
		c.logger.Debug("cache hit", zap.Stringer("key", key))
		return data, nil
	}

	f := e.flight
	if f == nil {
		c.metrics.Miss(key.Kind)
		f = c.startLocked(ctx, e, id, pol, fetch, onError)
	} else {
		c.metrics.Join(key.Kind)
	}
	f.waiters++
	ch := c.group.DoChan(f.group, func() (any, error) {
		// The initiating DoChan call runs the flight; joiners only wait.
		return nil, errors.New("querycache: flight already retired")
	})
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		c.leave(e, f)
		return nil, ctx.Err()
	}
}

// startLocked registers a new flight for e and launches it. c.mu is held.
func (c *Cache) startLocked(ctx context.Context, e *entry, id string, pol Policy, fetch func(context.Context) (any, error), onError func(error)) *flight {
	c.gen++
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &flight{
		group:  id + "#" + strconv.FormatUint(c.gen, 10),
		cancel: cancel,
		prev:   e.status,
	}
	e.flight = f
	if e.status == StatusIdle {
		e.status = StatusLoading
	}

	// The first DoChan for a group key runs fn; get's own DoChan call then
	// joins it, so fn must be registered here before c.mu is released.
	c.group.DoChan(f.group, func() (any, error) {
		start := time.Now()
		data, err := c.fetch(fctx, e.key, pol, fetch)
		canceled := fctx.Err() != nil

		c.mu.Lock()
		if c.entries[id] == e && e.flight == f {
			e.flight = nil
			c.settleLocked(e, f, data, err, canceled)
		}
		c.mu.Unlock()
		cancel()

		switch {
		case err == nil:
			c.metrics.Fetched(e.key.Kind, OutcomeSuccess, time.Since(start))
		case canceled:
			c.metrics.Fetched(e.key.Kind, OutcomeCanceled, time.Since(start))
		default:
			c.metrics.Fetched(e.key.Kind, OutcomeError, time.Since(start))
			c.report(e.key, err, onError)
		}
		return data, err
	})
	return f
}

func (c *Cache) settleLocked(e *entry, f *flight, data any, err error, canceled bool) {
	now := c.now()
	e.lastUsed = now
	switch {
	case err == nil:
		e.data = data
		e.status = StatusSuccess
		e.updatedAt = now
		e.err = nil
		e.failures = 0
		e.invalidated = false
	case canceled:
		e.status = f.prev
	default:
		e.status = StatusError
		e.err = err
		e.failures++
	}
}

// leave drops one waiter. The last waiter to leave aborts the fetch and
// restores the entry as it was before the flight.
func (c *Cache) leave(e *entry, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 || e.flight != f {
		return
	}
	e.flight = nil
	e.status = f.prev
	f.cancel()
	c.logger.Debug("fetch abandoned", zap.Stringer("key", e.key))
}

func (c *Cache) report(key Key, err error, onError func(error)) {
	c.logger.Debug("fetch failed", zap.Stringer("key", key), zap.Error(err))
	if c.onError != nil {
		c.onError(key, err)
	}
	if onError != nil {
		onError(err)
	}
}

func (c *Cache) entryLocked(key Key, id string) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, lastUsed: c.now()}
		c.entries[id] = e
		c.metrics.Entries(len(c.entries))
	}
	return e
}

// Attach registers an observer of key. The entry is not collected while it
// has observers. The returned func detaches; calling it twice is a no-op.
func (c *Cache) Attach(key Key) (detach func()) {
	id := key.String()
	c.mu.Lock()
	e := c.entryLocked(key, id)
	e.observers++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.observers--
			e.lastUsed = c.now()
		})
	}
}

// Sweep removes unobserved, idle entries whose GC time has passed since
// their last use and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, e := range c.entries {
		if e.observers > 0 || e.flight != nil {
			continue
		}
		if expired(e.lastUsed, now, c.Policy(e.key.Kind).GCTime) {
			delete(c.entries, id)
			n++
		}
	}
	if n > 0 {
		c.metrics.Entries(len(c.entries))
		c.logger.Debug("cache sweep", zap.Int("removed", n), zap.Int("entries", len(c.entries)))
	}
	return n
}

// Invalidate marks matching entries stale so the next read fetches. Data is
// kept and still served to readers that do not go through Get.
func (c *Cache) Invalidate(pred Predicate) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if pred(e.key) {
			e.invalidated = true
			n++
		}
	}
	return n
}

// Remove deletes matching entries. Flights already running complete for
// their waiters but no longer write to the cache.
func (c *Cache) Remove(pred Predicate) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if pred(e.key) {
			delete(c.entries, id)
			n++
		}
	}
	if n > 0 {
		c.metrics.Entries(len(c.entries))
	}
	return n
}

// SetData stores v as a fresh successful result for key.
func (c *Cache) SetData(key Key, v any) {
	c.setData(key, v, c.now())
}

func (c *Cache) setData(key Key, v any, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key, key.String())
	e.data = v
	e.status = StatusSuccess
	e.updatedAt = at
	e.err = nil
	e.failures = 0
	e.invalidated = false
}

// GetData returns the last successful data for key without fetching.
func GetData[T any](c *Cache, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || e.data == nil {
		return zero, false
	}
	t, ok := e.data.(T)
	return t, ok
}

// State reports the bookkeeping of key's entry.
func (c *Cache) State(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return State{}, false
	}
	return State{
		Key:         e.key,
		Data:        e.data,
		Status:      e.status,
		UpdatedAt:   e.updatedAt,
		Err:         e.err,
		Failures:    e.failures,
		Observers:   e.observers,
		Invalidated: e.invalidated,
		Fetching:    e.flight != nil,
	}, true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
