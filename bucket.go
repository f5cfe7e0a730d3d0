package ratelimiter

import "time"

// tokenBucket holds per-client refill state. It has no locking of its own;
// the owning shard's mutex guards every access.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	rate       float64   // tokens added per second
	burst      float64   // bucket capacity
	lastAccess time.Time // read by the reclaimer to find stale buckets
}

func newTokenBucket(rate, burst float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     burst,
		lastRefill: now,
		rate:       rate,
		burst:      burst,
		lastAccess: now,
	}
}

// refill advances the bucket to now. Elapsed time is clamped to zero so a
// backwards clock step never drains tokens, and the balance is capped at
// burst so idle buckets don't accumulate unbounded credit.
func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens = min(b.tokens+elapsed.Seconds()*b.rate, b.burst)
	b.lastRefill = now
}

// consume refills the bucket and takes one token if at least one is
// available. The tokens >= 1 guard keeps the balance non-negative.
func (b *tokenBucket) consume(now time.Time) bool {
	b.refill(now)
	b.lastAccess = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// balance refills the bucket and reports the current token count without
// consuming anything.
func (b *tokenBucket) balance(now time.Time) float64 {
	b.refill(now)
	b.lastAccess = now
	return b.tokens
}

// setLimit installs a new rate and burst and resets the bucket to a full
// balance, so the client immediately gets its new burst allowance.
func (b *tokenBucket) setLimit(rate, burst float64, now time.Time) {
	b.rate = rate
	b.burst = burst
	b.tokens = burst
	b.lastRefill = now
	b.lastAccess = now
}
