package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/jrdriving/jrdriving-api/internal/model"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

// RequireRole rejects callers whose token role is not one of roles.  It must
// run after Authenticate; a missing identity is a 401, a wrong role a 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return gate(func(r model.Role) bool { return allowed[r] })
}

// RequireCapability admits the roles the model's capability table grants
// capability.  An unknown capability admits nobody.
func RequireCapability(capability model.Capability) echo.MiddlewareFunc {
    return RequireRole(model.RolesFor(capability)...)
}

func gate(permit func(model.Role) bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := Role(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrUnauthenticated.Error()})
            }
            if !permit(role) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrForbidden.Error()})
            }
            return next(c)
        }
    }
}
