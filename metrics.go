package ratelimiter

import "sync/atomic"

// Metrics is a point-in-time snapshot of limiter activity. Allowed and
// Denied grow monotonically over the process lifetime. ActiveClients is a
// best-effort gauge taken by walking the shards; it is not atomic with the
// counters, so Allowed+Denied and ActiveClients may reflect slightly
// different instants.
type Metrics struct {
	Allowed       uint64
	Denied        uint64
	ActiveClients int
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	BucketsCreated int64 // Total number of buckets created
	BucketsRemoved int64 // Total number of idle buckets reclaimed
	ActiveBuckets  int   // Current number of live buckets
	IsRunning      bool  // Whether the reclaimer goroutine is running
}

// metricsCollector tracks allow/deny outcomes with independent atomics.
// Updates happen outside the shard locks so the hot path never serializes
// on metrics.
type metricsCollector struct {
	allowed atomic.Uint64
	denied  atomic.Uint64
}

func (m *metricsCollector) record(allowed bool) {
	if allowed {
		m.allowed.Add(1)
	} else {
		m.denied.Add(1)
	}
}
