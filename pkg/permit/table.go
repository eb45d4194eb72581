package permit

import (
	"sync"
	"sync/atomic"
)

// table is the concurrent key→bucket map. Entries appear lazily on first
// access and disappear either by explicit removal or during the shared
// pool's idle sweep. Backing it with sync.Map keeps a sweep's removals from
// blocking unrelated inserts, and iteration tolerates concurrent mutation.
type table[K comparable] struct {
	buckets sync.Map // Key[K] → *bucket
	size    atomic.Int64
}

func (t *table[K]) load(key Key[K]) (*bucket, bool) {
	v, ok := t.buckets.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*bucket), true
}

// loadOrCreate returns the bucket for key, creating it on first access.
// Racing creators may both construct a bucket, but only one is ever
// published; construction has no side effects beyond the allocation.
func (t *table[K]) loadOrCreate(key Key[K], create func() *bucket) *bucket {
	if v, ok := t.buckets.Load(key); ok {
		return v.(*bucket)
	}
	v, loaded := t.buckets.LoadOrStore(key, create())
	if !loaded {
		t.size.Add(1)
	}
	return v.(*bucket)
}

func (t *table[K]) delete(key Key[K]) bool {
	if _, ok := t.buckets.LoadAndDelete(key); ok {
		t.size.Add(-1)
		return true
	}
	return false
}

// deleteFunc removes every bucket for which drop reports true. A bucket
// concurrently replaced or already removed is left alone.
func (t *table[K]) deleteFunc(drop func(*bucket) bool) {
	t.buckets.Range(func(key, v any) bool {
		if drop(v.(*bucket)) && t.buckets.CompareAndDelete(key, v) {
			t.size.Add(-1)
		}
		return true
	})
}

func (t *table[K]) len() int64 {
	return t.size.Load()
}

func (t *table[K]) keys() []Key[K] {
	var keys []Key[K]
	t.buckets.Range(func(key, _ any) bool {
		keys = append(keys, key.(Key[K]))
		return true
	})
	return keys
}
