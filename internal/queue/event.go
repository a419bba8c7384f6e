// Package queue defines the event kinds fanned out to webhooks and the
// message broker, and the background consumer that records them.
package queue

// Kind names a notification class.  It doubles as the broker queue name.
type Kind string

const (
    QuoteCreated               Kind = "quote_created"
    DriverApplicationSubmitted Kind = "driver_application_submitted"
    MissionStatusChanged       Kind = "mission_status_changed"
    PasswordResetRequested     Kind = "password_reset_requested"
)

// Kinds lists every event kind.
var Kinds = []Kind{QuoteCreated, DriverApplicationSubmitted, MissionStatusChanged, PasswordResetRequested}

// Brokered reports whether events of kind k may be published to the broker.
// Password reset events carry a live secret and only go to their webhooks.
func (k Kind) Brokered() bool { return k != PasswordResetRequested }

// BrokeredKinds returns the subset of Kinds that reaches the broker.
func BrokeredKinds() []Kind {
    out := make([]Kind, 0, len(Kinds))
    for _, k := range Kinds {
        if k.Brokered() {
            out = append(out, k)
        }
    }
    return out
}

// MissionStatusEvent is emitted after a mission status change has been
// persisted.  Timestamps are RFC 3339 in UTC.
type MissionStatusEvent struct {
    MissionNumber  string  `json:"missionNumber"`
    Status         string  `json:"status"`
    PreviousStatus string  `json:"previousStatus,omitempty"`
    Priority       string  `json:"priority"`
    DriverID       *uint64 `json:"driverId"`
    ClientID       uint64  `json:"clientId"`
    ScheduledDate  string  `json:"scheduledDate"`
    UpdatedAt      string  `json:"updatedAt"`
}

// PasswordResetEvent carries the raw reset secret to the mailer.  It is the
// only place the secret ever leaves the process.
type PasswordResetEvent struct {
    Email      string `json:"email"`
    ResetToken string `json:"resetToken"`
    ExpiresAt  string `json:"expiresAt"`
}

// AttachmentPayload is a file forwarded with quote and application events.
// Data is the base64 content as submitted.
type AttachmentPayload struct {
    FileName string  `json:"fileName"`
    MimeType *string `json:"mimeType"`
    FileSize int64   `json:"fileSize"`
    Data     string  `json:"data"`
}
