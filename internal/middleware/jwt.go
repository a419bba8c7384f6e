package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/jrdriving/jrdriving-api/internal/service"
)

// TokenVerifier turns a raw session token into the caller's identity.
type TokenVerifier interface {
    VerifyToken(raw string) (service.Identity, error)
}

// Authenticate returns an Echo middleware that resolves the session token
// from the cookie named cookieName or an "Authorization: Bearer" header and
// injects the caller into the context under "user_id" (uint64) and "role"
// (model.Role).  The cookie is tried first; a cookie that fails to verify
// does not mask a valid header.  Requests without a valid token are rejected
// with 401.
func Authenticate(v TokenVerifier, cookieName string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := UserID(c); ok {
                return next(c)
            }
            if !identify(c, v, cookieName) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrUnauthenticated.Error()})
            }
            return next(c)
        }
    }
}

// Identify is the lenient form of Authenticate: a valid token sets the
// caller's identity, anything else leaves the request anonymous.  It runs
// ahead of the rate limiter so per-user keys see who is calling.
func Identify(v TokenVerifier, cookieName string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            identify(c, v, cookieName)
            return next(c)
        }
    }
}

func identify(c echo.Context, v TokenVerifier, cookieName string) bool {
    for _, raw := range tokensFrom(c, cookieName) {
        id, err := v.VerifyToken(raw)
        if err != nil {
            continue
        }
        c.Set(ctxUserID, id.UserID)
        c.Set(ctxRole, id.Role)
        return true
    }
    return false
}

// tokensFrom lists the candidate tokens, cookie first.  Empty values count
// as absent.
func tokensFrom(c echo.Context, cookieName string) []string {
    var out []string
    if ck, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(ck.Value) != "" {
        out = append(out, strings.TrimSpace(ck.Value))
    }
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
        if raw := strings.TrimSpace(auth[7:]); raw != "" {
            out = append(out, raw)
        }
    }
    return out
}
