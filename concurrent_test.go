package ratelimiter_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/perimetra/ratelimiter"
)

func TestRateLimiter_ConcurrentSafety(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping race condition test in short mode")
	}

	t.Parallel()

	t.Run("concurrent requests same client", func(t *testing.T) {
		limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
			DefaultRate:     1, // slow refill so admits are bounded by burst
			DefaultBurst:    1000,
			NumShards:       16,
			CleanupInterval: time.Hour,
			InactivityTTL:   time.Hour,
		})
		defer limiter.Close()

		goroutines := 100
		requestsPerGoroutine := 20

		var wg sync.WaitGroup
		wg.Add(goroutines)

		var allowed atomic.Int64
		var denied atomic.Int64

		for n := 0; n < goroutines; n++ {
			go func() {
				defer wg.Done()
				for r := 0; r < requestsPerGoroutine; r++ {
					if limiter.Allow("shared") {
						allowed.Add(1)
					} else {
						denied.Add(1)
					}
				}
			}()
		}

		wg.Wait()

		totalRequests := int64(goroutines * requestsPerGoroutine)
		assert.Equal(t, totalRequests, allowed.Load()+denied.Load())
		// At most the burst plus a couple of refilled tokens can be admitted.
		assert.LessOrEqual(t, allowed.Load(), int64(1002))

		m := limiter.Metrics()
		assert.Equal(t, uint64(allowed.Load()), m.Allowed)
		assert.Equal(t, uint64(denied.Load()), m.Denied)
	})

	t.Run("concurrent requests disjoint clients", func(t *testing.T) {
		limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
			DefaultRate:     1,
			DefaultBurst:    100,
			NumShards:       16,
			CleanupInterval: time.Hour,
			InactivityTTL:   time.Hour,
		})
		defer limiter.Close()

		goroutines := 50
		requestsPerGoroutine := 10

		var g errgroup.Group
		for n := 0; n < goroutines; n++ {
			g.Go(func() error {
				clientID := uuid.NewString()
				for i := 0; i < requestsPerGoroutine; i++ {
					if !limiter.Allow(clientID) {
						return fmt.Errorf("call %d for %s denied below burst", i+1, clientID)
					}
				}
				return nil
			})
		}
		assert.NoError(t, g.Wait())

		m := limiter.Metrics()
		assert.Equal(t, uint64(goroutines*requestsPerGoroutine), m.Allowed)
		assert.Equal(t, uint64(0), m.Denied)
		assert.Equal(t, goroutines, limiter.GetClientCount())
	})

	t.Run("concurrent allow and set limit", func(t *testing.T) {
		limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
			DefaultRate:     100,
			DefaultBurst:    100,
			NumShards:       8,
			CleanupInterval: time.Hour,
			InactivityTTL:   time.Hour,
		})
		defer limiter.Close()

		goroutines := 20

		var wg sync.WaitGroup
		wg.Add(goroutines * 3)

		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				for r := 0; r < 50; r++ {
					limiter.Allow("contested")
				}
			}()

			go func(n int) {
				defer wg.Done()
				for r := 0; r < 10; r++ {
					limiter.SetLimit("contested", float64(10+n), float64(20+n))
					time.Sleep(time.Microsecond)
				}
			}(i)

			go func() {
				defer wg.Done()
				for r := 0; r < 50; r++ {
					_ = limiter.GetTokens("contested")
				}
			}()
		}

		wg.Wait()

		// Balance stays within the largest burst any override installed.
		assert.LessOrEqual(t, limiter.GetTokens("contested"), float64(20+goroutines))
	})

	t.Run("concurrent traffic during reclamation", func(t *testing.T) {
		limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
			DefaultRate:     100,
			DefaultBurst:    100,
			NumShards:       8,
			CleanupInterval: 5 * time.Millisecond,
			InactivityTTL:   10 * time.Millisecond,
		})
		defer limiter.Close()

		var g errgroup.Group
		for w := 0; w < 10; w++ {
			w := w
			g.Go(func() error {
				for i := 0; i < 200; i++ {
					limiter.Allow(fmt.Sprintf("w%d-c%d", w, i%5))
					if i%50 == 0 {
						time.Sleep(time.Millisecond)
					}
				}
				return nil
			})
		}
		assert.NoError(t, g.Wait())
	})
}
