package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestIDMiddleware tags each request with an id, reusing a sane inbound
// X-Request-ID and generating a UUID otherwise.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set(ctxRequestID, id)
			return next(c)
		}
	}
}

// LoggerMiddleware writes one access log line per request.  The query
// string is left out because reset and tracking links carry secrets and
// customer references.
func LoggerMiddleware(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let Echo render the error first so the logged status is final.
				c.Error(err)
			}

			status := c.Response().Status
			entry := log.WithFields(logrus.Fields{
				"status":     status,
				"latency":    time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"method":     c.Request().Method,
				"route":      c.Path(),
				"user":       subject(c),
				"request_id": RequestID(c),
			})
			switch {
			case status >= 500:
				entry.Error("server error")
			case status >= 400:
				entry.Warn("client error")
			default:
				entry.Info("request processed")
			}
			return nil
		}
	}
}
