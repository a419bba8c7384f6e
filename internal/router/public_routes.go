package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jrdriving/jrdriving-api/internal/handler"
	"github.com/jrdriving/jrdriving-api/internal/middleware"
	"github.com/jrdriving/jrdriving-api/internal/model"
)

// RegisterPublic registers the public submission forms and the admin-only
// downloads of their attachments.
func RegisterPublic(e *echo.Echo, q *handler.QuoteHandler, r *handler.RecruitmentHandler, authn echo.MiddlewareFunc) {
	canRead := middleware.RequireCapability(model.CapAttachmentRead)

	e.POST("/quotes", q.Create)
	e.GET("/quotes/:id/attachments/:attachmentId", q.Attachment, authn, canRead)

	e.POST("/recruitment", r.Submit)
	e.GET("/recruitment/applications/:id/attachments/:attachmentId", r.Attachment, authn, canRead)
}
