// Package cache wires github.com/dgraph-io/ristretto/v2 into the storage
// engine as a second, higher-level cache sitting above the buffer pool:
// the buffer pool caches raw page bytes under pin/unpin discipline, while
// TupleCache caches already-decoded tuples so a hot Table.Get doesn't pay
// to re-run value.Decode on every call. Ristretto is declared in the
// donor's go.mod but never imported anywhere in that codebase; this is
// its first real use.
package cache

import (
	"github.com/dgraph-io/ristretto/v2"

	"pagedb/storage/heap"
	"pagedb/storage/value"
)

// TupleCache caches decoded tuples keyed by their record id. Callers must
// invalidate an entry (Del) whenever the underlying record changes.
type TupleCache struct {
	c *ristretto.Cache[uint64, []value.Value]
}

// ridKey packs a RID into the uint64 key ristretto.Key requires.
func ridKey(rid heap.RID) uint64 {
	return uint64(rid.PageID)<<16 | uint64(rid.Slot)
}

// NewTupleCache builds a cache sized for roughly capacity decoded tuples.
func NewTupleCache(capacity int64) (*TupleCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, []value.Value]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &TupleCache{c: c}, nil
}

// Get returns the cached decoded values for rid, if present.
func (tc *TupleCache) Get(rid heap.RID) ([]value.Value, bool) {
	return tc.c.Get(ridKey(rid))
}

// Set caches the decoded values for rid.
func (tc *TupleCache) Set(rid heap.RID, values []value.Value) {
	tc.c.Set(ridKey(rid), values, 1)
}

// Invalidate drops any cached entry for rid, called on update or delete.
func (tc *TupleCache) Invalidate(rid heap.RID) {
	tc.c.Del(ridKey(rid))
}

// Wait blocks until ristretto's internal set buffers have drained, so a Set
// immediately followed by a Get is guaranteed to observe it. Production
// callers don't need this; tests do.
func (tc *TupleCache) Wait() {
	tc.c.Wait()
}

// Close releases the cache's background goroutines.
func (tc *TupleCache) Close() {
	tc.c.Close()
}
