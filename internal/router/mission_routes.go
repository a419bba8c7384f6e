package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jrdriving/jrdriving-api/internal/handler"
	"github.com/jrdriving/jrdriving-api/internal/middleware"
	"github.com/jrdriving/jrdriving-api/internal/model"
)

// RegisterMissions registers tracking and the mission lifecycle.  Tracking is
// public and served through the response cache; listing and status changes
// need a session holding the matching capability.  Ownership of the mission
// is checked by the service.
func RegisterMissions(e *echo.Echo, h *handler.MissionHandler, authn echo.MiddlewareFunc, cache *middleware.ResponseCache) {
	e.GET("/missions/track/:missionNumber", h.Track, cache.Middleware())

	g := e.Group("/missions", authn)
	g.GET("", h.List, middleware.RequireCapability(model.CapMissionList))
	g.PATCH("/:missionId/status", h.UpdateStatus, middleware.RequireCapability(model.CapMissionUpdateStatus))
}
