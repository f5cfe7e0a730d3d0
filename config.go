package ratelimiter

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the default per-client limits and the background
// reclamation of idle clients. The zero value is usable: every invalid or
// unset field is replaced with its DefaultConfig value at construction time
// rather than rejected, so a half-filled Config never fails.
type Config struct {
	// DefaultRate is the refill rate, in tokens per second, for clients
	// without a per-client override.
	DefaultRate float64 `env:"RATELIMIT_DEFAULT_RATE" envDefault:"50"`

	// DefaultBurst is the bucket capacity for clients without an override.
	DefaultBurst float64 `env:"RATELIMIT_DEFAULT_BURST" envDefault:"100"`

	// NumShards is the number of lock partitions for client state. It is
	// rounded up to the next power of two so shard routing is a mask.
	NumShards int `env:"RATELIMIT_NUM_SHARDS" envDefault:"32"`

	// CleanupInterval is how often the reclaimer sweeps for idle clients.
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"5m"`

	// InactivityTTL is how long a client may stay untouched before its
	// bucket is reclaimed. It should exceed CleanupInterval.
	InactivityTTL time.Duration `env:"RATELIMIT_INACTIVITY_TTL" envDefault:"1h"`
}

// DefaultConfig returns a configuration suitable for moderate traffic:
// 50 req/s with a burst of 100 per client, 32 shards, and hourly-scale
// eviction of idle clients.
func DefaultConfig() Config {
	return Config{
		DefaultRate:     50,
		DefaultBurst:    100,
		NumShards:       32,
		CleanupInterval: 5 * time.Minute,
		InactivityTTL:   time.Hour,
	}
}

// LoadConfig populates a Config from environment variables (RATELIMIT_*),
// falling back to the documented defaults for unset variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

// withDefaults replaces invalid fields with safe defaults and normalizes the
// shard count to a power of two.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DefaultRate <= 0 {
		c.DefaultRate = def.DefaultRate
	}
	if c.DefaultBurst < 1 {
		c.DefaultBurst = def.DefaultBurst
	}
	if c.NumShards < 1 {
		c.NumShards = def.NumShards
	}
	c.NumShards = nextPowerOfTwo(c.NumShards)
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.InactivityTTL <= 0 {
		c.InactivityTTL = def.InactivityTTL
	}
	return c
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
