// Package cache keeps the evaluated feature snapshot close to the admin
// process so flag evaluation does not hit the database on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/featureadmin/internal/features"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key holding the snapshot.
const DefaultKey = "featureadmin:snapshot"

// SnapshotCache stores the current feature snapshot.
type SnapshotCache interface {
	// Get reports false when no snapshot is cached.
	Get(ctx context.Context) (features.Snapshot, bool, error)
	Set(ctx context.Context, snapshot features.Snapshot) error
	Invalidate(ctx context.Context) error
}

// Noop never caches anything.
type Noop struct{}

func (Noop) Get(context.Context) (features.Snapshot, bool, error) {
	return features.Snapshot{}, false, nil
}

func (Noop) Set(context.Context, features.Snapshot) error { return nil }

func (Noop) Invalidate(context.Context) error { return nil }

// Memory caches the snapshot in process for ttl. A zero ttl never expires.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	snapshot *features.Snapshot
	storedAt time.Time
}

// NewMemory returns an in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(context.Context) (features.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return features.Snapshot{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(m.storedAt) >= m.ttl {
		m.snapshot = nil
		return features.Snapshot{}, false, nil
	}
	return *m.snapshot, true, nil
}

func (m *Memory) Set(_ context.Context, snapshot features.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snapshot
	m.storedAt = m.now()
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

// Redis stores the snapshot as JSON under one key.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis wraps client. An empty key uses DefaultKey; a zero ttl keeps the
// snapshot until it is invalidated.
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration) *Redis {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func (r *Redis) Get(ctx context.Context) (features.Snapshot, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return features.Snapshot{}, false, nil
	}
	if err != nil {
		return features.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	var snapshot features.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return features.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, true, nil
}

func (r *Redis) Set(ctx context.Context, snapshot features.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

var (
	_ SnapshotCache = Noop{}
	_ SnapshotCache = (*Memory)(nil)
	_ SnapshotCache = (*Redis)(nil)
)
