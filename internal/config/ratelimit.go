package config

import "time"

// Bucket is one token bucket: Capacity tokens, Refill of them restored every
// Interval.
type Bucket struct {
    Capacity int
    Refill   int
    Interval time.Duration
}

func (b Bucket) normalize() Bucket {
    if b.Capacity < 1 {
        b.Capacity = 1
    }
    if b.Refill < 1 {
        b.Refill = 1
    }
    if b.Interval <= 0 {
        b.Interval = time.Second
    }
    return b
}

// RateLimitConfig drives the Redis rate limiter.  Credentials is the tighter
// bucket applied to login, signup and password recovery.
type RateLimitConfig struct {
    Enabled     bool
    Default     Bucket
    Credentials Bucket
    TTL         time.Duration
    KeyStrategy string // ip, user, route, ip_user, ip_route, user_route or all three
    Prefix      string
    Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Default: Bucket{
            Capacity: envInt("RATE_LIMIT_CAPACITY", envInt("RATE_LIMIT_BURST", 20)),
            Refill:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
            Interval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
        },
        Credentials: Bucket{
            Capacity: envInt("RATE_LIMIT_AUTH_CAPACITY", 5),
            Refill:   1,
            Interval: envDur("RATE_LIMIT_AUTH_REFILL_INTERVAL", 30*time.Second),
        },
        TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "jr:rl"),
        Debug:       envBool("RATE_LIMIT_DEBUG", false),
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        cfg.Default.Refill = 1
        cfg.Default.Interval = every
    }
    cfg.Default = cfg.Default.normalize()
    cfg.Credentials = cfg.Credentials.normalize()

    // An idle bucket must outlive a full refill of the slower of the two.
    slowest := max(cfg.Default.Interval*time.Duration(cfg.Default.Capacity), cfg.Credentials.Interval*time.Duration(cfg.Credentials.Capacity))
    if cfg.TTL < slowest {
        cfg.TTL = slowest
    }
    return cfg
}
