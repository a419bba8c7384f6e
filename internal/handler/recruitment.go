package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/model"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

type Recruitment interface {
    Submit(ctx context.Context, in service.ApplicationInput) (model.DriverApplication, error)
    Attachment(ctx context.Context, applicationID, attachmentID uint64) (model.Attachment, []byte, error)
}

type RecruitmentHandler struct {
    Recruitment Recruitment
    Log         logrus.FieldLogger
}

func NewRecruitmentHandler(r Recruitment, log logrus.FieldLogger) *RecruitmentHandler {
    return &RecruitmentHandler{Recruitment: r, Log: log}
}

// Submit is public: POST /recruitment.
func (h *RecruitmentHandler) Submit(c echo.Context) error {
    var req service.ApplicationInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, err := h.Recruitment.Submit(ctx, req)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": a.ID, "message": "application received"})
}

// Attachment is GET /recruitment/applications/:id/attachments/:attachmentId.
func (h *RecruitmentHandler) Attachment(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    attID, err := pathID(c, "attachmentId")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    a, raw, err := h.Recruitment.Attachment(ctx, id, attID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return sendAttachment(c, a, raw)
}
