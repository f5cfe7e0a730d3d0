package ratelimiter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter is a sharded, per-client token bucket limiter. Each client ID
// gets its own bucket, lazily created on first use with the configured
// defaults and reclaimed in the background once the client goes idle.
type RateLimiter struct {
	cfg   Config
	store *shardedStore

	metrics metricsCollector
	created atomic.Int64
	removed atomic.Int64

	logger *slog.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithLogger sets the logger for reclaimer lifecycle events. Logging is
// discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(rl *RateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// NewRateLimiter creates a limiter and starts its background reclaimer.
// Invalid config fields fall back to DefaultConfig values instead of
// failing. Call Close to stop the reclaimer when the limiter is no longer
// needed.
func NewRateLimiter(cfg Config, opts ...Option) *RateLimiter {
	cfg = cfg.withDefaults()

	rl := &RateLimiter{
		cfg:    cfg,
		store:  newShardedStore(cfg.NumShards),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(rl)
	}

	rl.running.Store(true)
	go rl.reclaimLoop()

	return rl
}

// Allow reports whether one request from the client is admitted right now,
// consuming one token if so. It never blocks on anything but the client's
// own shard lock.
func (rl *RateLimiter) Allow(clientID string) bool {
	s := rl.store.shardFor(clientID)
	now := time.Now()

	s.mu.Lock()
	b, created := s.getOrCreate(clientID, rl.cfg.DefaultRate, rl.cfg.DefaultBurst, now)
	allowed := b.consume(now)
	s.mu.Unlock()

	if created {
		rl.created.Add(1)
	}
	// Counters are updated after the lock is released to keep the critical
	// section to bucket math only.
	rl.metrics.record(allowed)
	return allowed
}

// SetLimit installs a per-client rate and burst, overriding the configured
// defaults for that client. The bucket is reset to a full balance, so up to
// burst calls to Allow succeed immediately afterwards. Non-positive rate or
// a burst below 1 fall back to the configured defaults.
func (rl *RateLimiter) SetLimit(clientID string, rate, burst float64) {
	if rate <= 0 {
		rate = rl.cfg.DefaultRate
	}
	if burst < 1 {
		burst = rl.cfg.DefaultBurst
	}

	s := rl.store.shardFor(clientID)
	now := time.Now()

	s.mu.Lock()
	b, created := s.getOrCreate(clientID, rate, burst, now)
	b.setLimit(rate, burst, now)
	s.mu.Unlock()

	if created {
		rl.created.Add(1)
	}
}

// GetTokens returns the client's current token balance after refill, without
// consuming anything. A client without prior activity reports a full default
// bucket.
func (rl *RateLimiter) GetTokens(clientID string) float64 {
	s := rl.store.shardFor(clientID)
	now := time.Now()

	s.mu.Lock()
	b, created := s.getOrCreate(clientID, rl.cfg.DefaultRate, rl.cfg.DefaultBurst, now)
	tokens := b.balance(now)
	s.mu.Unlock()

	if created {
		rl.created.Add(1)
	}
	return tokens
}

// GetClientCount reports the number of clients with live buckets. The count
// is taken one shard at a time, so it is approximate under concurrent
// traffic.
func (rl *RateLimiter) GetClientCount() int {
	return rl.store.size()
}

// Metrics returns a snapshot of allow/deny counters and the active client
// gauge. See Metrics for consistency notes.
func (rl *RateLimiter) Metrics() Metrics {
	return Metrics{
		Allowed:       rl.metrics.allowed.Load(),
		Denied:        rl.metrics.denied.Load(),
		ActiveClients: rl.store.size(),
	}
}

// Stats returns observability counters for monitoring. Safe to call at any
// time.
func (rl *RateLimiter) Stats() Stats {
	return Stats{
		BucketsCreated: rl.created.Load(),
		BucketsRemoved: rl.removed.Load(),
		ActiveBuckets:  rl.store.size(),
		IsRunning:      rl.running.Load(),
	}
}

// Healthcheck validates that the limiter is operational. It returns an error
// once the limiter is closed or if the reclaimer has exited unexpectedly.
// Suitable for use in health check endpoints.
func (rl *RateLimiter) Healthcheck(ctx context.Context) error {
	select {
	case <-rl.stop:
		return fmt.Errorf("rate limiter is closed")
	default:
	}
	if !rl.running.Load() {
		return fmt.Errorf("reclaimer is not running")
	}
	return nil
}

// Close stops the reclaimer and waits for it to exit. In-flight foreground
// calls complete normally. Close is idempotent; calling it more than once is
// safe.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.stop)
		<-rl.done
	})
}
