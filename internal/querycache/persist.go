package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Snapshot is a serializable copy of successful cache entries.
type Snapshot struct {
	Buster    string          `json:"buster"`
	Timestamp time.Time       `json:"timestamp"`
	Entries   []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one dehydrated entry.
type SnapshotEntry struct {
	Key       Key             `json:"key"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DecodeFunc turns dehydrated data back into the value Get[T] expects for
// key. Entries it fails on are skipped.
type DecodeFunc func(key Key, data json.RawMessage) (any, error)

// Dehydrate serializes the successful entries matching pred.
func (c *Cache) Dehydrate(pred Predicate) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{Timestamp: c.now()}
	for _, e := range c.entries {
		if e.status != StatusSuccess || !pred(e.key) {
			continue
		}
		b, err := json.Marshal(e.data)
		if err != nil {
			return Snapshot{}, fmt.Errorf("dehydrating %s: %w", e.key, err)
		}
		snap.Entries = append(snap.Entries, SnapshotEntry{Key: e.key, Data: b, UpdatedAt: e.updatedAt})
	}
	return snap, nil
}

// Hydrate loads snapshot entries into the cache. An entry already holding
// newer data is left alone. It returns how many entries were loaded.
func (c *Cache) Hydrate(s Snapshot, decode DecodeFunc) int {
	n := 0
	for _, se := range s.Entries {
		if st, ok := c.State(se.Key); ok && st.Status == StatusSuccess && !st.UpdatedAt.Before(se.UpdatedAt) {
			continue
		}
		v, err := decode(se.Key, se.Data)
		if err != nil {
			c.logger.Warn("skipping persisted entry", zap.Stringer("key", se.Key), zap.Error(err))
			continue
		}
		c.setData(se.Key, v, se.UpdatedAt)
		n++
	}
	return n
}

// Store is a durable byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Persister saves and restores a filtered snapshot under one store key.
// A stored snapshot with another Buster, or older than MaxAge, is
// discarded on Restore.
type Persister struct {
	Store      Store
	StorageKey string
	Buster     string
	MaxAge     time.Duration
	Filter     Predicate
	Decode     DecodeFunc
	Logger     *zap.Logger
	Now        func() time.Time
}

func (p *Persister) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Persister) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

// Save writes the snapshot of the filtered entries.
func (p *Persister) Save(ctx context.Context, c *Cache) error {
	filter := p.Filter
	if filter == nil {
		filter = All
	}
	snap, err := c.Dehydrate(filter)
	if err != nil {
		return err
	}
	snap.Buster = p.Buster
	snap.Timestamp = p.now()

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.Store.Put(ctx, p.StorageKey, b); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	p.logger().Debug("cache snapshot saved", zap.Int("entries", len(snap.Entries)))
	return nil
}

// Restore hydrates c from the stored snapshot and returns the number of
// entries loaded. A missing snapshot loads nothing.
func (p *Persister) Restore(ctx context.Context, c *Cache) (int, error) {
	b, ok, err := p.Store.Get(ctx, p.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}
	if !ok {
		return 0, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		p.logger().Warn("discarding unreadable snapshot", zap.Error(err))
		return 0, p.discard(ctx)
	}
	if snap.Buster != p.Buster {
		p.logger().Info("discarding snapshot", zap.String("buster", snap.Buster), zap.String("want", p.Buster))
		return 0, p.discard(ctx)
	}
	if p.MaxAge > 0 && p.now().Sub(snap.Timestamp) > p.MaxAge {
		p.logger().Info("discarding expired snapshot", zap.Time("saved_at", snap.Timestamp))
		return 0, p.discard(ctx)
	}

	n := c.Hydrate(snap, p.Decode)
	p.logger().Info("cache restored", zap.Int("entries", n))
	return n, nil
}

func (p *Persister) discard(ctx context.Context) error {
	if err := p.Store.Delete(ctx, p.StorageKey); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
