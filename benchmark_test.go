package ratelimiter_test

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/perimetra/ratelimiter"
)

// highThroughputConfig makes every call an admit so the benchmark measures
// routing and locking, not denial short-circuits.
func highThroughputConfig(shards int) ratelimiter.Config {
	return ratelimiter.Config{
		DefaultRate:     1e9,
		DefaultBurst:    1e9,
		NumShards:       shards,
		CleanupInterval: time.Hour,
		InactivityTTL:   time.Hour,
	}
}

// BenchmarkAllow_ShardScaling measures contention reduction as the shard
// count grows. Each parallel worker hammers its own client ID, so with one
// shard everything serializes on a single lock and throughput should climb
// as shards are added.
func BenchmarkAllow_ShardScaling(b *testing.B) {
	for _, shards := range []int{1, 4, 16, 64} {
		b.Run(fmt.Sprintf("shards_%d", shards), func(b *testing.B) {
			limiter := ratelimiter.NewRateLimiter(highThroughputConfig(shards))
			defer limiter.Close()

			var workers atomic.Int64
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				clientID := "client-" + strconv.FormatInt(workers.Add(1), 10)
				for pb.Next() {
					limiter.Allow(clientID)
				}
			})
		})
	}
}

func BenchmarkAllow_SharedClient(b *testing.B) {
	limiter := ratelimiter.NewRateLimiter(highThroughputConfig(16))
	defer limiter.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow("hot-client")
		}
	})
}

func BenchmarkGetTokens(b *testing.B) {
	limiter := ratelimiter.NewRateLimiter(highThroughputConfig(16))
	defer limiter.Close()

	limiter.Allow("client")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = limiter.GetTokens("client")
	}
}
