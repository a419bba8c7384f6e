package middleware

// identity.go holds the context keys written by Authenticate and the helpers
// that read them back.  Handlers and the other middleware never touch the
// raw keys.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/jrdriving/jrdriving-api/internal/model"
)

const (
    ctxUserID    = "user_id"
    ctxRole      = "role"
    ctxRequestID = "request_id"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the role claimed by the session token, if any.
func Role(c echo.Context) (model.Role, bool) {
    r, ok := c.Get(ctxRole).(model.Role)
    return r, ok && r != ""
}

// RequestID returns the id assigned by the RequestID middleware.
func RequestID(c echo.Context) string {
    s, _ := c.Get(ctxRequestID).(string)
    return s
}

// subject names the caller for rate limit keys and access logs.  It is
// "guest" when no user is authenticated.
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
