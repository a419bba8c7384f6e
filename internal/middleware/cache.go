package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/config"
)

// captureWriter copies the response body while forwarding it to the client.
// At most limit bytes are kept; overflow marks the capture as truncated.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.truncated = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cachedResponse is what a cache entry holds.  Body is base64 in JSON.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

func decodeCached(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status < 100 || cr.Status > 599 {
        return cachedResponse{}, false
    }
    return cr, true
}

// replay writes a cached response.  Per-request headers are not replayed.
func (cr cachedResponse) replay(c echo.Context) {
    h := c.Response().Header()
    for k, vals := range cr.Header {
        if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, echo.HeaderXRequestID) {
            continue
        }
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(cr.Status)
    _, _ = c.Response().Write(cr.Body)
}

// ResponseCache keeps successful responses of public read endpoints in Redis,
// keyed by method and URL path.  Writers that change the underlying data call
// Purge with the same path.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log logrus.FieldLogger
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) key(method, path string) string {
    return rc.cfg.Prefix + ":" + strings.ToUpper(method) + ":" + path
}

// Middleware serves hits straight from Redis with X-Cache: HIT and stores
// 200 responses on a miss.  Redis errors degrade to an uncached request.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !rc.cfg.Methods[strings.ToUpper(req.Method)] {
                return next(c)
            }
            key := rc.key(req.Method, req.URL.Path)

            bs, err := rc.rdb.Get(req.Context(), key).Bytes()
            switch {
            case err == nil:
                if cr, ok := decodeCached(bs); ok {
                    cr.replay(c)
                    return nil
                }
            case !errors.Is(err, redis.Nil):
                rc.log.WithError(err).Warn("response cache read failed")
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
            if err != nil {
                return nil
            }
            // The request context may already be cancelled once the client
            // has its response.
            ctx, cancel := context.WithTimeout(context.Background(), time.Second)
            defer cancel()
            if err := rc.rdb.Set(ctx, key, payload, rc.cfg.TTL).Err(); err != nil {
                rc.log.WithError(err).Warn("response cache write failed")
            }
            return nil
        }
    }
}

// Purge drops every cached variant of path.
func (rc *ResponseCache) Purge(ctx context.Context, path string) error {
    if !rc.enabled() {
        return nil
    }
    keys := make([]string, 0, len(rc.cfg.Methods))
    for m := range rc.cfg.Methods {
        keys = append(keys, rc.key(m, path))
    }
    if len(keys) == 0 {
        return nil
    }
    return rc.rdb.Del(ctx, keys...).Err()
}
