package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/model"
    "github.com/jrdriving/jrdriving-api/internal/service"
)

// Quotes is the part of service.QuoteService the quote endpoints use.
type Quotes interface {
    Create(ctx context.Context, in service.QuoteInput) (model.Quote, error)
    Update(ctx context.Context, id uint64, in service.UpdateQuoteInput) (model.Quote, error)
    Attachment(ctx context.Context, quoteID, attachmentID uint64) (model.Attachment, []byte, error)
}

type QuoteHandler struct {
    Quotes Quotes
    Log    logrus.FieldLogger
}

func NewQuoteHandler(quotes Quotes, log logrus.FieldLogger) *QuoteHandler {
    return &QuoteHandler{Quotes: quotes, Log: log}
}

// Create is public: POST /quotes.
func (h *QuoteHandler) Create(c echo.Context) error {
    var req service.QuoteInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    q, err := h.Quotes.Create(ctx, req)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": q.ID, "status": q.Status})
}

// Update is PATCH /admin/quotes/:id.
func (h *QuoteHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, h.Log, err)
    }
    var req service.UpdateQuoteInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    q, err := h.Quotes.Update(ctx, id, req)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"quote": service.NewQuoteView(q)})
}

// Attachment is GET /quotes/:id/attachments/:attachmentId.
func (h *QuoteHandler) Attachment(c echo.Context) error {
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

    a, raw, err := h.Quotes.Attachment(ctx, id, attID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return sendAttachment(c, a, raw)
}
