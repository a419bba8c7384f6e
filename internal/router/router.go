package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/jrdriving/jrdriving-api/internal/handler"
	"github.com/jrdriving/jrdriving-api/internal/middleware"
)

// Deps is everything the routes are wired to.
type Deps struct {
	Health      echo.HandlerFunc
	Auth        *handler.AuthHandler
	Missions    *handler.MissionHandler
	Quotes      *handler.QuoteHandler
	Recruitment *handler.RecruitmentHandler
	Admin       *handler.AdminHandler

	// Verifier and CookieName configure the session gate.
	Verifier   middleware.TokenVerifier
	CookieName string
	// TrackingCache fronts the public tracking endpoint; nil disables it.
	TrackingCache *middleware.ResponseCache
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	authn := middleware.Authenticate(d.Verifier, d.CookieName)

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, authn)
	RegisterMissions(e, d.Missions, authn, d.TrackingCache)
	RegisterPublic(e, d.Quotes, d.Recruitment, authn)
	RegisterAdmin(e, d.Admin, d.Missions, d.Quotes, authn)
}

// RegisterRoutes registers the health check used by load balancers.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the account endpoints.  Signup, login, logout and
// password recovery are public; the session lookup needs a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Logout only clears the cookie, so an expired session can still call it.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.GET("/session", a.Session, authn)
}
