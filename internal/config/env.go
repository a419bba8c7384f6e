package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

func envStr(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

// envBool accepts anything strconv.ParseBool does plus yes/no and on/off.
func envBool(key string, def bool) bool {
    v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
    switch v {
    case "":
        return def
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    return def
}

func envInt(key string, def int) int {
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
        return n
    }
    return def
}

// envDur accepts Go durations plus a whole-day suffix ("7d").
func envDur(key string, def time.Duration) time.Duration {
    if d, ok := parseDuration(strings.TrimSpace(os.Getenv(key))); ok {
        return d
    }
    return def
}

func parseDuration(v string) (time.Duration, bool) {
    if v == "" {
        return 0, false
    }
    if days, ok := strings.CutSuffix(v, "d"); ok {
        n, err := strconv.Atoi(days)
        if err != nil || n <= 0 {
            return 0, false
        }
        return time.Duration(n) * 24 * time.Hour, true
    }
    d, err := time.ParseDuration(v)
    return d, err == nil
}
