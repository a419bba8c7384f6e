package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jrdriving/jrdriving-api/internal/handler"
	"github.com/jrdriving/jrdriving-api/internal/middleware"
	"github.com/jrdriving/jrdriving-api/internal/model"
)

// RegisterAdmin registers back-office endpoints under /admin.  Every route
// requires a session; each one names the capability it needs.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, m *handler.MissionHandler, q *handler.QuoteHandler, authn echo.MiddlewareFunc) {
	g := e.Group("/admin", authn)
	g.GET("/dashboard", a.GetDashboard, middleware.RequireCapability(model.CapDashboardView))

	manage := middleware.RequireCapability(model.CapMissionManage)
	g.POST("/missions", m.Create, manage)
	g.PATCH("/missions/:missionId/assign", m.Assign, manage)

	g.PATCH("/quotes/:id", q.Update, middleware.RequireCapability(model.CapQuoteManage))
}
