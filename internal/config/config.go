package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "net/http"
    "os"
    "strconv"
    "strings"
    "time"
)

// Config holds all runtime configuration values.  It is built once by Load
// and then passed by value into every constructor; nothing reads the
// environment after startup.
type Config struct {
    Env  string // application environment (development, production)
    Port string // HTTP port to listen on

    DatabaseURL string // full MySQL DSN; takes precedence over the DB* parts
    DBUser      string
    DBPass      string
    DBHost      string
    DBPort      string
    DBName      string
    AutoMigrate bool // apply the embedded schema at boot

    JWTSecret     string
    TokenTTL      time.Duration // lifetime of issued session tokens
    BcryptCost    int
    ResetTokenTTL time.Duration // lifetime of password reset secrets

    CORSOrigins []string

    Cookie CookieConfig

    Webhooks       WebhookConfig
    WebhookTimeout time.Duration

    AMQPURL          string // empty disables broker publishing
    EventLogConsumer bool   // run the lifecycle event consumer in-process

    LogLevel  string
    LogFormat string
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
    Name     string
    MaxAge   time.Duration
    SameSite http.SameSite
    Secure   bool
}

// WebhookConfig lists destination URLs per notification class.  Any list may
// be empty, which disables that class.
type WebhookConfig struct {
    QuoteCreated        []string
    DriverApplication   []string
    MissionStatusChange []string
    PasswordReset       []string
}

const devSecret = "change-me"

// Load reads configuration values from environment variables and returns a
// Config.  Production deployments must provide a database location and a
// strong JWT secret; in development sensible defaults are used instead.
func Load() (Config, error) {
    env := envStr("APP_ENV", "development")
    sameSiteRaw := strings.ToLower(envStr("AUTH_COOKIE_SAME_SITE", "lax"))

    cfg := Config{
        Env:         env,
        Port:        envStr("APP_PORT", envStr("PORT", "4000")),
        DatabaseURL: os.Getenv("DATABASE_URL"),
        DBUser:      envStr("DB_USER", "root"),
        DBPass:      os.Getenv("DB_PASS"), // empty allowed
        DBHost:      envStr("DB_HOST", "127.0.0.1"),
        DBPort:      envStr("DB_PORT", "3306"),
        DBName:      envStr("DB_NAME", "jrdriving"),
        AutoMigrate: envBool("DB_AUTO_MIGRATE", false),

        JWTSecret:     envStr("JWT_SECRET", ""),
        TokenTTL:      envDur("JWT_EXPIRES_IN", 7*24*time.Hour),
        BcryptCost:    envInt("BCRYPT_COST", 10),
        ResetTokenTTL: envDur("RESET_TOKEN_TTL", 30*time.Minute),

        CORSOrigins: splitList(os.Getenv("CORS_ORIGIN")),

        Cookie: CookieConfig{
            Name:     envStr("AUTH_COOKIE_NAME", "jrdriving_token"),
            MaxAge:   time.Duration(envInt("AUTH_COOKIE_MAX_AGE", 60*60*24*7)) * time.Second,
            SameSite: parseSameSite(sameSiteRaw),
            Secure:   env == "production" || sameSiteRaw == "none",
        },

        Webhooks: WebhookConfig{
            QuoteCreated:        splitList(os.Getenv("AUTOMATION_QUOTE_WEBHOOKS")),
            DriverApplication:   splitList(os.Getenv("AUTOMATION_DRIVER_WEBHOOKS")),
            MissionStatusChange: splitList(os.Getenv("MISSION_NOTIFICATION_WEBHOOKS")),
            PasswordReset:       splitList(os.Getenv("PASSWORD_RESET_WEBHOOKS")),
        },
        WebhookTimeout: envDur("WEBHOOK_TIMEOUT", 10*time.Second),

        AMQPURL:          envStr("AMQP_URL", os.Getenv("RABBITMQ_URL")),
        EventLogConsumer: envBool("EVENT_LOG_CONSUMER", false),

        LogLevel:  envStr("LOG_LEVEL", "info"),
        LogFormat: envStr("LOG_FORMAT", "json"),
    }

    if cfg.JWTSecret == "" && !cfg.IsProduction() {
        cfg.JWTSecret = devSecret
    }
    if err := cfg.validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// IsProduction reports whether strict production settings apply.
func (c Config) IsProduction() bool { return c.Env == "production" }

func (c Config) validate() error {
    if c.IsProduction() {
        if c.DatabaseURL == "" && os.Getenv("DB_HOST") == "" {
            return errors.New("config: DATABASE_URL or DB_HOST is required in production")
        }
        if c.JWTSecret == "" || c.JWTSecret == devSecret {
            return errors.New("config: JWT_SECRET must be set to a strong value in production")
        }
    }
    if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
        return fmt.Errorf("config: invalid port %q", c.Port)
    }
    if c.TokenTTL <= 0 {
        return errors.New("config: JWT_EXPIRES_IN must be positive")
    }
    if c.BcryptCost < 4 || c.BcryptCost > 31 {
        return fmt.Errorf("config: BCRYPT_COST out of range: %d", c.BcryptCost)
    }
    return nil
}

func parseSameSite(s string) http.SameSite {
    switch s {
    case "strict":
        return http.SameSiteStrictMode
    case "none":
        return http.SameSiteNoneMode
    default:
        return http.SameSiteLaxMode
    }
}

// splitList turns a comma separated value into a trimmed list without empties.
func splitList(s string) []string {
    out := []string{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
