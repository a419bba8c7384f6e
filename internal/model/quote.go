package model

import "time"

// QuoteStatus tracks a quote request through sales.
type QuoteStatus string

const (
    QuoteNew       QuoteStatus = "new"
    QuoteQuoted    QuoteStatus = "quoted"
    QuoteConverted QuoteStatus = "converted"
    QuoteDeclined  QuoteStatus = "declined"
)

// Valid reports whether s is a known quote status.
func (s QuoteStatus) Valid() bool {
    switch s {
    case QuoteNew, QuoteQuoted, QuoteConverted, QuoteDeclined:
        return true
    }
    return false
}

// Quote mirrors the `quotes` table.
type Quote struct {
    ID                uint64
    FullName          string
    Email             string
    Phone             string
    CompanyName       *string
    VehicleType       string
    DepartureLocation string
    ArrivalLocation   string
    PreferredDate     *time.Time
    Message           *string
    Status            QuoteStatus
    EstimatedPrice    *float64
    CreatedAt         time.Time
    UpdatedAt         time.Time
}

// Attachment is a file stored alongside a quote or a driver application.
// Content holds the base64 text exactly as persisted; it is left empty when
// only metadata was loaded.  Attachments are never updated.
type Attachment struct {
    ID        uint64
    OwnerID   uint64 // quote_id or application_id
    FileName  string
    MimeType  *string
    FileSize  int64
    Content   string
    CreatedAt time.Time
}

// ContentType returns the stored mime type or a binary fallback.
func (a Attachment) ContentType() string {
    if a.MimeType != nil && *a.MimeType != "" {
        return *a.MimeType
    }
    return "application/octet-stream"
}
