package umap

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached stage result. It must be derived only from the
// logical inputs of the computation it names; build one with NewKey.
type Key uint64

func (k Key) String() string { return strconv.FormatUint(uint64(k), 16) }

// KeyBuilder hashes stage inputs into a Key.
type KeyBuilder struct {
	d   *xxhash.Digest
	buf [8]byte
}

// NewKey starts a key for the named stage. Keys of different stages never
// collide by construction of their inputs alone.
func NewKey(stage string) *KeyBuilder {
	b := &KeyBuilder{d: xxhash.New()}
	return b.Text(stage)
}

func (b *KeyBuilder) Uint64(v uint64) *KeyBuilder {
	binary.LittleEndian.PutUint64(b.buf[:], v)
	_, _ = b.d.Write(b.buf[:])
	return b
}

func (b *KeyBuilder) Int(v int) *KeyBuilder { return b.Uint64(uint64(v)) }

func (b *KeyBuilder) Float(v float64) *KeyBuilder { return b.Uint64(math.Float64bits(v)) }

func (b *KeyBuilder) Text(s string) *KeyBuilder {
	b.Int(len(s))
	_, _ = b.d.WriteString(s)
	return b
}

func (b *KeyBuilder) Key(k Key) *KeyBuilder { return b.Uint64(uint64(k)) }

// Sum returns the finished key.
func (b *KeyBuilder) Sum() Key { return Key(b.d.Sum64()) }

// CacheStats counts cache traffic. Computes is the number of times a compute
// function actually ran.
type CacheStats struct {
	Hits     int64
	Misses   int64
	Computes int64
	Len      int
}

// DefaultCacheCapacity is the number of results each stage keeps.
const DefaultCacheCapacity = 8

// Cache memoizes one pipeline stage. For a resident key the compute function
// runs at most once; concurrent callers of the same key share a single
// computation. Failed computations are not stored. When the cache is full
// the least recently used key is superseded.
//
// Cache is safe for concurrent use.
type Cache[V any] struct {
	name    string
	entries *lru.Cache[Key, V]
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	computes atomic.Int64
}

// NewCache creates a cache holding up to capacity results. A capacity below
// 1 is treated as 1, which keeps only the most recent key.
func NewCache[V any](name string, capacity int) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	entries, _ := lru.New[Key, V](capacity)
	return &Cache[V]{name: name, entries: entries}
}

// Name returns the stage name the cache was created with.
func (c *Cache[V]) Name() string { return c.name }

// GetOrCompute returns the value stored under key, running compute to
// produce it on a miss. An error from compute is returned unchanged and
// nothing is stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return v, true, nil
	}
	c.misses.Add(1)

	res, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A caller that finished while we waited for the group.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.computes.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Peek returns the value for key without computing or touching recency.
func (c *Cache[V]) Peek(key Key) (V, bool) {
	return c.entries.Peek(key)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Computes: c.computes.Load(),
		Len:      c.entries.Len(),
	}
}

// Purge drops every stored result. Counters are kept.
func (c *Cache[V]) Purge() {
	c.entries.Purge()
}
