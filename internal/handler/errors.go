package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/middleware"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

type errorBody struct {
    Error  string            `json:"error"`
    Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps a service error to its HTTP status.  Unknown errors are 500.
func statusFor(err error) int {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve), errors.Is(err, service.ErrInvalidResetToken):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
        return http.StatusUnauthorized
    case errors.Is(err, service.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    }
    return http.StatusInternalServerError
}

// respondError writes err as {"error": ..., "fields": ...}.  Internal errors
// are logged with the request id and answered with a generic message.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
    var he *echo.HTTPError
    if errors.As(err, &he) {
        msg := http.StatusText(he.Code)
        if s, ok := he.Message.(string); ok && s != "" {
            msg = s
        }
        return c.JSON(he.Code, errorBody{Error: msg})
    }

    status := statusFor(err)
    if status == http.StatusInternalServerError {
        log.WithError(err).WithFields(logrus.Fields{
            "request_id": middleware.RequestID(c),
            "route":      c.Path(),
        }).Error("request failed")
        return c.JSON(status, errorBody{Error: "internal server error"})
    }
    var ve *service.ValidationError
    if errors.As(err, &ve) {
        return c.JSON(status, errorBody{Error: ve.Message, Fields: ve.Fields})
    }
    return c.JSON(status, errorBody{Error: err.Error()})
}

// ErrorHandler renders errors that escape handlers and middleware (unknown
// routes, body limit, panics recovered by Echo) in the same JSON shape.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        if werr := respondError(c, log, err); werr != nil {
            log.WithError(werr).Warn("write error response")
        }
    }
}
