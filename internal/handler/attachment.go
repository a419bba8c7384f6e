package handler

import (
    "mime"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/jrdriving/jrdriving-api/internal/model"
)

// sendAttachment streams a stored file as a download.
func sendAttachment(c echo.Context, a model.Attachment, raw []byte) error {
    h := c.Response().Header()
    disposition := mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName})
    if disposition == "" {
        disposition = "attachment"
    }
    h.Set("Content-Disposition", disposition)
    h.Set("X-Content-Type-Options", "nosniff")
    h.Set("Cache-Control", "private, no-store")
    return c.Blob(http.StatusOK, a.ContentType(), raw)
}
