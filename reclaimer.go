package ratelimiter

import (
	"log/slog"
	"time"
)

// reclaimLoop runs in its own goroutine, sweeping idle buckets every
// CleanupInterval until Close is called.
func (rl *RateLimiter) reclaimLoop() {
	defer close(rl.done)
	defer rl.running.Store(false)

	rl.logger.Info("reclaimer started",
		slog.Duration("cleanup_interval", rl.cfg.CleanupInterval),
		slog.Duration("inactivity_ttl", rl.cfg.InactivityTTL))

	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			rl.logger.Info("reclaimer stopping")
			return
		case <-ticker.C:
			rl.reclaim(time.Now())
		}
	}
}

// reclaim sweeps shards one at a time, so foreground traffic is never
// blocked on more than a single shard's worth of work. Deletion uses the
// same per-shard locks as the foreground path, so it can never observe a
// half-updated map.
func (rl *RateLimiter) reclaim(now time.Time) {
	removed := 0
	for _, s := range rl.store.shards {
		removed += s.sweep(now, rl.cfg.InactivityTTL)
	}

	if removed > 0 {
		rl.removed.Add(int64(removed))
		rl.logger.Debug("reclaimed idle clients", slog.Int("removed", removed))
	}
}
