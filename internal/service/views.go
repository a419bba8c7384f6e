package service

import (
	"time"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
)

// JSON projections returned by the API.  Field names are camelCase and
// optional values are explicit nulls.

type UserView struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProfileView struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"userId"`
	FullName  string     `json:"fullName"`
	Phone     *string    `json:"phone"`
	Role      model.Role `json:"role"`
	Plan      *string    `json:"plan"`
	AvatarURL *string    `json:"avatarUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Session is what a signed-in caller sees about themselves.
type Session struct {
	User    UserView    `json:"user"`
	Profile ProfileView `json:"profile"`
}

func newSession(u model.User, p model.Profile) Session {
	return Session{
		User: UserView{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt},
		Profile: ProfileView{
			ID: p.ID, UserID: p.UserID, FullName: p.FullName, Phone: p.Phone, Role: p.Role,
			Plan: p.Plan, AvatarURL: p.AvatarURL, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
		},
	}
}

type MissionView struct {
	ID                  uint64                `json:"id"`
	ClientID            uint64                `json:"clientId"`
	DriverID            *uint64               `json:"driverId"`
	MissionNumber       string                `json:"missionNumber"`
	DepartureAddress    string                `json:"departureAddress"`
	DepartureCity       string                `json:"departureCity"`
	DeparturePostalCode string                `json:"departurePostalCode"`
	ArrivalAddress      string                `json:"arrivalAddress"`
	ArrivalCity         string                `json:"arrivalCity"`
	ArrivalPostalCode   string                `json:"arrivalPostalCode"`
	ScheduledDate       time.Time             `json:"scheduledDate"`
	ScheduledTime       *string               `json:"scheduledTime"`
	ActualStartTime     *time.Time            `json:"actualStartTime"`
	ActualEndTime       *time.Time            `json:"actualEndTime"`
	DistanceKm          *float64              `json:"distanceKm"`
	Price               *float64              `json:"price"`
	Status              model.MissionStatus   `json:"status"`
	Priority            model.MissionPriority `json:"priority"`
	Notes               *string               `json:"notes"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

func NewMissionView(m model.Mission) MissionView {
	return MissionView{
		ID: m.ID, ClientID: m.ClientID, DriverID: m.DriverID, MissionNumber: m.MissionNumber,
		DepartureAddress: m.DepartureAddress, DepartureCity: m.DepartureCity, DeparturePostalCode: m.DeparturePostalCode,
		ArrivalAddress: m.ArrivalAddress, ArrivalCity: m.ArrivalCity, ArrivalPostalCode: m.ArrivalPostalCode,
		ScheduledDate: m.ScheduledDate, ScheduledTime: m.ScheduledTime,
		ActualStartTime: m.ActualStartTime, ActualEndTime: m.ActualEndTime,
		DistanceKm: m.DistanceKm, Price: m.Price, Status: m.Status, Priority: m.Priority, Notes: m.Notes,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func missionViews(ms []model.Mission) []MissionView {
	out := make([]MissionView, len(ms))
	for i, m := range ms {
		out[i] = NewMissionView(m)
	}
	return out
}

// TrackingView is the public projection of a mission.  It carries no
// addresses, prices, contact details or internal ids.
type TrackingView struct {
	MissionNumber string                `json:"missionNumber"`
	Status        model.MissionStatus   `json:"status"`
	Priority      model.MissionPriority `json:"priority"`
	DepartureCity string                `json:"departureCity"`
	ArrivalCity   string                `json:"arrivalCity"`
	ScheduledDate time.Time             `json:"scheduledDate"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	DriverName    *string               `json:"driverName"`
}

type AttachmentMeta struct {
	ID        uint64    `json:"id"`
	FileName  string    `json:"fileName"`
	MimeType  *string   `json:"mimeType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

func attachmentMetas(as []model.Attachment) []AttachmentMeta {
	out := make([]AttachmentMeta, len(as))
	for i, a := range as {
		out[i] = AttachmentMeta{ID: a.ID, FileName: a.FileName, MimeType: a.MimeType, FileSize: a.FileSize, CreatedAt: a.CreatedAt}
	}
	return out
}

func attachmentPayloads(as []model.Attachment) []queue.AttachmentPayload {
	if len(as) == 0 {
		return nil
	}
	out := make([]queue.AttachmentPayload, len(as))
	for i, a := range as {
		out[i] = queue.AttachmentPayload{FileName: a.FileName, MimeType: a.MimeType, FileSize: a.FileSize, Data: a.Content}
	}
	return out
}

type QuoteView struct {
	ID                uint64            `json:"id"`
	FullName          string            `json:"fullName"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	CompanyName       *string           `json:"companyName"`
	VehicleType       string            `json:"vehicleType"`
	DepartureLocation string            `json:"departureLocation"`
	ArrivalLocation   string            `json:"arrivalLocation"`
	PreferredDate     *time.Time        `json:"preferredDate"`
	Message           *string           `json:"message"`
	Status            model.QuoteStatus `json:"status"`
	EstimatedPrice    *float64          `json:"estimatedPrice"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func NewQuoteView(q model.Quote) QuoteView {
	return QuoteView{
		ID: q.ID, FullName: q.FullName, Email: q.Email, Phone: q.Phone, CompanyName: q.CompanyName,
		VehicleType: q.VehicleType, DepartureLocation: q.DepartureLocation, ArrivalLocation: q.ArrivalLocation,
		PreferredDate: q.PreferredDate, Message: q.Message, Status: q.Status, EstimatedPrice: q.EstimatedPrice,
		CreatedAt: q.CreatedAt, UpdatedAt: q.UpdatedAt,
	}
}

// QuoteWithAttachments is a quote annotated with attachment metadata.
type QuoteWithAttachments struct {
	QuoteView
	Attachments []AttachmentMeta `json:"attachments"`
}

type ApplicationView struct {
	ID              uint64                  `json:"id"`
	FullName        string                  `json:"fullName"`
	Email           string                  `json:"email"`
	Phone           string                  `json:"phone"`
	YearsExperience int                     `json:"yearsExperience"`
	LicenseTypes    []string                `json:"licenseTypes"`
	Regions         []string                `json:"regions"`
	Availability    string                  `json:"availability"`
	HasOwnVehicle   bool                    `json:"hasOwnVehicle"`
	HasCompany      bool                    `json:"hasCompany"`
	Message         *string                 `json:"message"`
	Status          model.ApplicationStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func NewApplicationView(a model.DriverApplication) ApplicationView {
	return ApplicationView{
		ID: a.ID, FullName: a.FullName, Email: a.Email, Phone: a.Phone, YearsExperience: a.YearsExperience,
		LicenseTypes: a.LicenseTypes, Regions: a.Regions, Availability: a.Availability,
		HasOwnVehicle: a.HasOwnVehicle, HasCompany: a.HasCompany, Message: a.Message, Status: a.Status,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

// ApplicationWithAttachments is an application annotated with attachment
// metadata.
type ApplicationWithAttachments struct {
	ApplicationView
	Attachments []AttachmentMeta `json:"attachments"`
}

// QuoteCreatedEvent is the quote_created notification payload.
type QuoteCreatedEvent struct {
	Quote       QuoteView                 `json:"quote"`
	Attachments []queue.AttachmentPayload `json:"attachments,omitempty"`
}

// ApplicationSubmittedEvent is the driver_application_submitted payload.
type ApplicationSubmittedEvent struct {
	ApplicationView
	Attachments []queue.AttachmentPayload `json:"attachments,omitempty"`
}
