package ratelimiter

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// shard owns one partition of the client space: a mutex and the buckets of
// every client that hashes into it. Shards are fully independent; no
// operation ever holds more than one shard lock.
type shard struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

// getOrCreate returns the client's bucket, lazily seeding a new one with the
// supplied rate and burst. The second result reports whether a bucket was
// created. Callers must hold s.mu.
func (s *shard) getOrCreate(clientID string, rate, burst float64, now time.Time) (*tokenBucket, bool) {
	b, ok := s.buckets[clientID]
	if ok {
		return b, false
	}
	b = newTokenBucket(rate, burst, now)
	s.buckets[clientID] = b
	return b, true
}

// sweep deletes every bucket idle longer than ttl and reports how many were
// removed. It takes and releases the shard lock itself.
func (s *shard) sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, b := range s.buckets {
		if now.Sub(b.lastAccess) > ttl {
			delete(s.buckets, id)
			removed++
		}
	}
	return removed
}

// size reports the number of live buckets in the shard.
func (s *shard) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// shardedStore routes every client to exactly one shard by hashing its ID.
// The shard count is always a power of two, so the modulo reduces to a mask.
type shardedStore struct {
	shards []*shard
	mask   uint64
}

func newShardedStore(numShards int) *shardedStore {
	shards := make([]*shard, numShards)
	for i := range shards {
		shards[i] = &shard{buckets: make(map[string]*tokenBucket)}
	}
	return &shardedStore{
		shards: shards,
		mask:   uint64(numShards - 1),
	}
}

// shardFor returns the home shard for a client. The hash is pure and the
// shard count is fixed, so a client maps to the same shard for the lifetime
// of the store.
func (st *shardedStore) shardFor(clientID string) *shard {
	return st.shards[xxhash.Sum64String(clientID)&st.mask]
}

// size sums the shard sizes, locking one shard at a time. The result is a
// best-effort gauge: shards may change while later ones are being counted.
func (st *shardedStore) size() int {
	total := 0
	for _, s := range st.shards {
		total += s.size()
	}
	return total
}
