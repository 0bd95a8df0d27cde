package querycache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lfarina18/metafar-challenge/internal/querycache"
)

type statusError struct{ code int }

func (e statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e statusError) HTTPStatus() int { return e.code }

type fixedError struct{}

func (fixedError) Error() string   { return "bad payload" }
func (fixedError) Retryable() bool { return false }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// timers hands out backoff timers that fire at once and records the
// requested delays.
type timers struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (ts *timers) New() backoff.Timer { return &instantTimer{parent: ts, ch: make(chan time.Time, 1)} }

func (ts *timers) Delays() []time.Duration {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]time.Duration(nil), ts.delays...)
}

type instantTimer struct {
	parent *timers
	ch     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.parent.mu.Lock()
	t.parent.delays = append(t.parent.delays, d)
	t.parent.mu.Unlock()
	t.ch <- time.Time{}
}

func (t *instantTimer) C() <-chan time.Time { return t.ch }

func (t *instantTimer) Stop() {}

type countingMetrics struct {
	hits, misses, joins, retries atomic.Int64
}

func (m *countingMetrics) Hit(querycache.Kind)                            { m.hits.Add(1) }
func (m *countingMetrics) Miss(querycache.Kind)                           { m.misses.Add(1) }
func (m *countingMetrics) Join(querycache.Kind)                           { m.joins.Add(1) }
func (m *countingMetrics) Retry(querycache.Kind)                          { m.retries.Add(1) }
func (m *countingMetrics) Fetched(querycache.Kind, string, time.Duration) {}
func (m *countingMetrics) Entries(int)                                    {}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	return b, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

const (
	kindList   querycache.Kind = "list"
	kindDetail querycache.Kind = "detail"
	kindLive   querycache.Kind = "live"
)

func testPolicies() map[querycache.Kind]querycache.Policy {
	return map[querycache.Kind]querycache.Policy{
		kindList:   {StaleTime: querycache.Forever, GCTime: querycache.Forever, Retries: 3},
		kindDetail: {StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute, Retries: 3},
		kindLive:   {StaleTime: 0, GCTime: 5 * time.Minute, Retries: 3},
	}
}
