// Package ratelimiter provides a sharded, per-client token bucket rate
// limiter for high-throughput in-process use.
//
// Each client ID owns an independent token bucket that refills continuously
// at a configurable rate up to a burst capacity. Client state is partitioned
// across independently locked shards so that concurrent traffic for
// different clients rarely contends on the same lock, and a background
// reclaimer evicts buckets for idle clients to keep memory bounded.
//
// # Token Bucket Algorithm
//
// A bucket holds up to Burst tokens and gains Rate tokens per second.
// Every admitted request consumes one token; a request is denied when fewer
// than one token remains. Buckets refill lazily on access, so an idle client
// costs nothing until the reclaimer removes it.
//
// # Usage
//
// Basic setup with defaults:
//
//	limiter := ratelimiter.NewRateLimiter(ratelimiter.DefaultConfig())
//	defer limiter.Close()
//
//	if limiter.Allow("client-42") {
//		// handle the request
//	} else {
//		// reject with 429 or equivalent
//	}
//
// Custom configuration:
//
//	limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
//		DefaultRate:     10,          // 10 tokens/sec per client
//		DefaultBurst:    20,          // bursts up to 20 requests
//		NumShards:       64,          // lock partitions
//		CleanupInterval: time.Minute, // reclaimer wake interval
//		InactivityTTL:   time.Hour,   // idle time before eviction
//	})
//	defer limiter.Close()
//
// Invalid config fields fall back to safe defaults rather than failing, and
// the shard count is rounded up to a power of two.
//
// # Per-Client Overrides
//
// SetLimit installs a rate and burst for one client, replacing the defaults
// and resetting the bucket to a full balance:
//
//	// premium tenant gets 100 req/s with a burst of 500
//	limiter.SetLimit("tenant:premium", 100, 500)
//
// Clients without an override keep the configured defaults they were
// created with.
//
// # Concurrency
//
// All methods are safe for concurrent use. Operations for the same client
// are serialized by that client's shard lock; operations for different
// clients in different shards run fully concurrently. Allow never blocks on
// I/O or on another client's shard.
//
// # Metrics
//
// Allow outcomes are counted with atomics updated outside the shard locks:
//
//	m := limiter.Metrics()
//	log.Printf("allowed=%d denied=%d active=%d", m.Allowed, m.Denied, m.ActiveClients)
//
// ActiveClients is a best-effort gauge and is not atomic with the counters.
// Stats exposes bucket churn (created/reclaimed) for monitoring dashboards.
//
// # Environment Configuration
//
// LoadConfig reads the RATELIMIT_* environment variables:
//
//	cfg, err := ratelimiter.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	limiter := ratelimiter.NewRateLimiter(cfg)
//
// # Lifecycle
//
// NewRateLimiter starts the background reclaimer immediately. Close stops it
// and waits for it to exit; it is idempotent. Behavior of calls made after
// Close is undefined, so close the limiter only once it is out of service.
package ratelimiter
