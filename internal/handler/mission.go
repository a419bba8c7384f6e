package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/model"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

// Missions is the part of service.MissionService the mission endpoints use.
type Missions interface {
    TrackByNumber(ctx context.Context, number string) (service.TrackingView, error)
    ListForCaller(ctx context.Context, userID uint64) ([]model.Mission, error)
    ChangeStatus(ctx context.Context, missionID uint64, status string, userID uint64) (model.Mission, error)
    Create(ctx context.Context, in service.CreateMissionInput, userID uint64) (model.Mission, error)
    Assign(ctx context.Context, missionID, driverProfileID, userID uint64) (model.Mission, error)
}

// CachePurger drops cached responses for a URL path.
type CachePurger interface {
    Purge(ctx context.Context, path string) error
}

// TrackingPath is the public URL of a mission's tracking view, which is also
// its response cache key.
func TrackingPath(missionNumber string) string { return "/missions/track/" + missionNumber }

// MissionHandler serves tracking, listing and the status lifecycle.
type MissionHandler struct {
    Missions Missions
    Cache    CachePurger
    Log      logrus.FieldLogger
}

func NewMissionHandler(missions Missions, cache CachePurger, log logrus.FieldLogger) *MissionHandler {
    return &MissionHandler{Missions: missions, Cache: cache, Log: log}
}

type statusReq struct {
    Status string `json:"status" validate:"required"`
}

type assignReq struct {
    DriverID uint64 `json:"driverId" validate:"required"`
}

// Track is public: GET /missions/track/:missionNumber.  Only the canonical
// path answers 200, so the cached entry is always the one Purge drops; any
// other spelling of a known number is redirected there.
func (h *MissionHandler) Track(c echo.Context) error {
    raw := c.Param("missionNumber")
    if raw != strings.TrimSpace(raw) {
        return respondError(c, h.Log, &service.ValidationError{
            Message: "invalid input",
            Fields:  map[string]string{"missionNumber": "must not have surrounding whitespace"},
        })
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    v, err := h.Missions.TrackByNumber(ctx, raw)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if v.MissionNumber != raw {
        return c.Redirect(http.StatusMovedPermanently, TrackingPath(v.MissionNumber))
    }
    return c.JSON(http.StatusOK, echo.Map{"mission": v})
}

// List returns the missions visible to the caller.
func (h *MissionHandler) List(c echo.Context) error {
    uid, err := callerID(c)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    ms, err := h.Missions.ListForCaller(ctx, uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out := make([]service.MissionView, len(ms))
    for i, m := range ms {
        out[i] = service.NewMissionView(m)
    }
    return c.JSON(http.StatusOK, echo.Map{"missions": out})
}

// UpdateStatus is PATCH /missions/:missionId/status with body {status}.
// It answers 204 and drops the cached tracking view.
func (h *MissionHandler) UpdateStatus(c echo.Context) error {
    uid, err := callerID(c)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    id, err := pathID(c, "missionId")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req statusReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    m, err := h.Missions.ChangeStatus(ctx, id, req.Status, uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    h.purge(ctx, m)
    return c.NoContent(http.StatusNoContent)
}

// Create is POST /admin/missions.
func (h *MissionHandler) Create(c echo.Context) error {
    uid, err := callerID(c)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req service.CreateMissionInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    m, err := h.Missions.Create(ctx, req, uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"mission": service.NewMissionView(m)})
}

// Assign is PATCH /admin/missions/:missionId/assign with body {driverId}.
func (h *MissionHandler) Assign(c echo.Context) error {
    uid, err := callerID(c)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    id, err := pathID(c, "missionId")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req assignReq
    if err := bind(c, &req); err != nil {
        return respondError(c, h.Log, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    m, err := h.Missions.Assign(ctx, id, req.DriverID, uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    h.purge(ctx, m)
    return c.JSON(http.StatusOK, echo.Map{"mission": service.NewMissionView(m)})
}

// purge is best effort; a stale entry expires with the cache TTL.
func (h *MissionHandler) purge(ctx context.Context, m model.Mission) {
    if h.Cache == nil || m.MissionNumber == "" {
        return
    }
    if err := h.Cache.Purge(ctx, TrackingPath(m.MissionNumber)); err != nil {
        h.Log.WithError(err).WithField("mission", m.MissionNumber).Warn("tracking cache purge failed")
    }
}
