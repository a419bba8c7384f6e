package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/service"
)

type DashboardBuilder interface {
    Build(ctx context.Context) (service.Dashboard, error)
}

// AdminHandler serves the back-office dashboard.
type AdminHandler struct {
    Dashboard DashboardBuilder
    Log       logrus.FieldLogger
}

func NewAdminHandler(d DashboardBuilder, log logrus.FieldLogger) *AdminHandler {
    return &AdminHandler{Dashboard: d, Log: log}
}

func (h *AdminHandler) GetDashboard(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    d, err := h.Dashboard.Build(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, d)
}
