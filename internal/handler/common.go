package handler // handler defines http handlers

import (
    "context"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/jrdriving/jrdriving-api/internal/middleware"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// callerID returns the authenticated user or ErrUnauthenticated.
func callerID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, service.ErrUnauthenticated
    }
    return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
    if err != nil || n == 0 {
        return 0, &service.ValidationError{Message: "invalid input", Fields: map[string]string{name: "must be a positive integer"}}
    }
    return n, nil
}

// bind decodes the JSON body into dst and runs the registered validator.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return &service.ValidationError{Message: "invalid body"}
    }
    return c.Validate(dst)
}

// Validator adapts service.Validate to echo.Validator.
type Validator struct{}

func (Validator) Validate(i any) error { return service.Validate(i) }
