package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/config"
)

// tokenBucket refills capacity tokens in whole intervals and spends one per
// request.  State lives in a Redis hash so every API instance shares it.
var tokenBucket = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// Decision is the outcome of one rate limit check.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// RateLimiter is a Redis backed token bucket.
type RateLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
    log logrus.FieldLogger
    now func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) *RateLimiter {
    return &RateLimiter{cfg: cfg, rdb: rdb, log: log, now: time.Now}
}

// Allow spends one token from bucket b stored under key.
func (l *RateLimiter) Allow(ctx context.Context, key string, b config.Bucket) (Decision, error) {
    args := []interface{}{
        l.now().UnixMilli(),
        b.Capacity,
        b.Refill,
        b.Interval.Milliseconds(),
        int64(l.cfg.TTL / time.Second),
    }
    vals, err := tokenBucket.Run(ctx, l.rdb, []string{key}, args...).Result()
    if err != nil {
        return Decision{}, err
    }
    arr, ok := vals.([]interface{})
    if !ok || len(arr) != 3 {
        return Decision{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
    }
    return Decision{
        Allowed:    asInt64(arr[0]) == 1,
        Remaining:  asInt64(arr[1]),
        RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, nil
}

// credentialRoutes accept a password or an email that may trigger a reset
// mail, so they share the tighter bucket.
var credentialRoutes = map[string]bool{
    "/auth/login":           true,
    "/auth/signup":          true,
    "/auth/forgot-password": true,
    "/auth/reset-password":  true,
}

// bucketFor returns the bucket and key suffix for the request.
func (l *RateLimiter) bucketFor(c echo.Context) (config.Bucket, string) {
    if c.Request().Method == http.MethodPost && credentialRoutes[c.Path()] {
        return l.cfg.Credentials, ":cred"
    }
    return l.cfg.Default, ""
}

// Middleware limits requests per key.  Without Redis, or when disabled, it
// lets everything through; a Redis failure fails open.
func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
    if l == nil || !l.cfg.Enabled || l.rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            bucket, suffix := l.bucketFor(c)
            key := rateKey(l.cfg, c) + suffix
            d, err := l.Allow(c.Request().Context(), key, bucket)
            if err != nil {
                l.log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(bucket.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if l.cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !d.Allowed {
                secs := int(math.Ceil(d.RetryAfter.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                if l.cfg.Debug {
                    l.log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limited")
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}

// asInt64 reads a Lua integer reply, which go-redis returns as int64.
func asInt64(v interface{}) int64 {
    n, _ := v.(int64)
    return n
}

// rateKey joins the prefix with the dimensions named by the strategy, for
// example "ip_route" gives "<prefix>:ip:<addr>:route:<method path>".  An
// unknown strategy keys on all three.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    dims := map[string]string{
        "ip":    ip,
        "user":  subject(c),
        "route": c.Request().Method + " " + c.Path(),
    }
    names := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")
    for _, n := range names {
        if _, ok := dims[n]; !ok {
            names = []string{"ip", "user", "route"}
            break
        }
    }
    parts := []string{cfg.Prefix}
    for _, n := range names {
        parts = append(parts, n, dims[n])
    }
    return strings.Join(parts, ":")
}
