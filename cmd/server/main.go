package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jrdriving/jrdriving-api/internal/config"
	"github.com/jrdriving/jrdriving-api/internal/database"
	"github.com/jrdriving/jrdriving-api/internal/handler"
	"github.com/jrdriving/jrdriving-api/internal/logger"
	"github.com/jrdriving/jrdriving-api/internal/middleware"
	"github.com/jrdriving/jrdriving-api/internal/notify"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
	"github.com/jrdriving/jrdriving-api/internal/router"
	"github.com/jrdriving/jrdriving-api/internal/service"
)

// maxBodySize covers five 5 MiB attachments after base64 expansion.
const maxBodySize = "40M"

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg, err := config.Load() // Load environment config
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := openDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
		log.Info("schema up to date")
	}

	rdb := config.NewRedisClient() // nil when Redis is disabled or down
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and tracking cache disabled")
	} else {
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
	}

	var broker notify.Publisher
	if cfg.AMQPURL != "" {
		broker = notify.NewAMQPPublisher(cfg.AMQPURL, log)
	}
	notifier := notify.New(cfg.Webhooks, cfg.WebhookTimeout, broker, log)

	users := repository.NewUserRepo(db)
	resets := repository.NewResetTokenRepo(db)
	missions := repository.NewMissionRepo(db)
	quotes := repository.NewQuoteRepo(db)
	apps := repository.NewApplicationRepo(db)
	stats := repository.NewStatsRepo(db)

	authSvc := service.NewAuthService(cfg, users, resets, notifier, log)
	missionSvc := service.NewMissionService(missions, users, notifier, log)
	quoteSvc := service.NewQuoteService(quotes, notifier, log)
	recruitSvc := service.NewRecruitmentService(apps, notifier, log)
	dashSvc := service.NewDashboardService(stats, missions, quotes, apps)

	tracking := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Validator = handler.Validator{}

	e.Use(echomw.Recover())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(middleware.LoggerMiddleware(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(middleware.Identify(authSvc, cfg.Cookie.Name)) // per-user rate keys
	e.Use(limiter.Middleware())

	router.Register(e, router.Deps{
		Health:        handler.Health(db),
		Auth:          handler.NewAuthHandler(authSvc, cfg.Cookie, log),
		Missions:      handler.NewMissionHandler(missionSvc, tracking, log),
		Quotes:        handler.NewQuoteHandler(quoteSvc, log),
		Recruitment:   handler.NewRecruitmentHandler(recruitSvc, log),
		Admin:         handler.NewAdminHandler(dashSvc, log),
		Verifier:      authSvc,
		CookieName:    cfg.Cookie.Name,
		TrackingCache: tracking,
	})

	if cfg.EventLogConsumer && cfg.AMQPURL != "" {
		go func() {
			if err := queue.NewConsumer(cfg.AMQPURL, "logs", log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event consumer stopped")
			}
		}()
	}
	go purgeResetTokens(ctx, resets, log)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	notifier.Wait()
}

// openDB prefers DATABASE_URL and falls back to the discrete DB_* settings.
func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.OpenURL(cfg.DatabaseURL)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// purgeResetTokens drops expired password reset tokens once an hour.
func purgeResetTokens(ctx context.Context, resets *repository.ResetTokenRepo, log logrus.FieldLogger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := resets.PurgeExpired(ctx, now.UTC())
			if err != nil {
				log.WithError(err).Warn("reset token purge failed")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Info("expired reset tokens purged")
			}
		}
	}
}
