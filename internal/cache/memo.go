// Package cache provides a bounded memo for rendered citation output.
// Concurrent requests for the same key share one computation.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize bounds the number of memoized entries.
const DefaultSize = 512

// Memo caches computed values by string key. A key is computed at most
// once at a time; callers arriving while a computation is in flight
// receive its result instead of starting their own.
type Memo[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group
}

// NewMemo creates a memo holding up to size entries, or DefaultSize
// when size is not positive.
func NewMemo[V any](size int) (*Memo[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Memo[V]{entries: entries}, nil
}

// Do returns the cached value for key, computing and storing it on a
// miss. Errors are not cached; a failed computation leaves the key
// absent so a later call retries.
func (m *Memo[V]) Do(key string, compute func() (V, error)) (V, error) {
	if v, ok := m.entries.Get(key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.entries.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		m.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Get reports the cached value for key without computing anything.
func (m *Memo[V]) Get(key string) (V, bool) {
	return m.entries.Get(key)
}

// Purge drops every cached entry.
func (m *Memo[V]) Purge() {
	m.entries.Purge()
}

// Len is the number of cached entries.
func (m *Memo[V]) Len() int {
	return m.entries.Len()
}

// Key builds a cache key from the request parts that determine output.
func Key(parts ...string) string {
	key := parts[0]
	for _, p := range parts[1:] {
		key += "\x1f" + p
	}
	return key
}
