package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
)

// QuoteService accepts public quote requests and lets admins price them.
type QuoteService struct {
	quotes   QuoteStore
	notifier Notifier
	log      logrus.FieldLogger
}

func NewQuoteService(quotes QuoteStore, notifier Notifier, log logrus.FieldLogger) *QuoteService {
	return &QuoteService{quotes: quotes, notifier: notifier, log: log}
}

type QuoteInput struct {
	FullName          string            `json:"fullName" validate:"required,min=2,max=255"`
	Email             string            `json:"email" validate:"required,email,max=255"`
	Phone             string            `json:"phone" validate:"required,min=6,max=30"`
	CompanyName       string            `json:"companyName" validate:"max=120"`
	VehicleType       string            `json:"vehicleType" validate:"required,max=100"`
	DepartureLocation string            `json:"departureLocation" validate:"required,min=2,max=255"`
	ArrivalLocation   string            `json:"arrivalLocation" validate:"required,min=2,max=255"`
	PreferredDate     string            `json:"preferredDate"`
	Message           string            `json:"message" validate:"max=500"`
	Attachments       []AttachmentInput `json:"attachments" validate:"max=5,dive"`
}

// Create stores a quote request and its files, then forwards it to the quote
// automations.
func (s *QuoteService) Create(ctx context.Context, in QuoteInput) (model.Quote, error) {
	trim(&in.FullName, &in.Email, &in.Phone, &in.CompanyName, &in.VehicleType,
		&in.DepartureLocation, &in.ArrivalLocation, &in.PreferredDate, &in.Message)
	in.Email = strings.ToLower(in.Email)

	fields := fieldErrors{}
	if err := fields.merge(Validate(in)); err != nil {
		return model.Quote{}, err
	}
	q := model.Quote{
		FullName:          in.FullName,
		Email:             in.Email,
		Phone:             in.Phone,
		CompanyName:       optional(in.CompanyName),
		VehicleType:       in.VehicleType,
		DepartureLocation: in.DepartureLocation,
		ArrivalLocation:   in.ArrivalLocation,
		Message:           optional(in.Message),
		Status:            model.QuoteNew,
	}
	if in.PreferredDate != "" {
		t, err := parseDate(in.PreferredDate)
		if err != nil {
			fields.add("preferredDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		} else {
			q.PreferredDate = &t
		}
	}
	files := decodeAttachments(in.Attachments, fields)
	if err := fields.err(); err != nil {
		return model.Quote{}, err
	}

	if err := s.quotes.Create(ctx, &q, files); err != nil {
		return model.Quote{}, err
	}
	s.notifier.Notify(queue.QuoteCreated, QuoteCreatedEvent{
		Quote:       NewQuoteView(q),
		Attachments: attachmentPayloads(files),
	})
	s.log.WithFields(logrus.Fields{"quote_id": q.ID, "attachments": len(files)}).Info("quote created")
	return q, nil
}

type UpdateQuoteInput struct {
	Status         *string  `json:"status" validate:"omitempty,oneof=new quoted converted declined"`
	EstimatedPrice *float64 `json:"estimatedPrice" validate:"omitempty,gte=0"`
}

// Update sets the status and/or estimated price of a quote.
func (s *QuoteService) Update(ctx context.Context, id uint64, in UpdateQuoteInput) (model.Quote, error) {
	if in.Status == nil && in.EstimatedPrice == nil {
		return model.Quote{}, &ValidationError{Message: "nothing to update", Fields: map[string]string{
			"status": "status or estimatedPrice is required",
		}}
	}
	if in.Status != nil {
		v := strings.TrimSpace(*in.Status)
		in.Status = &v
	}
	if err := Validate(in); err != nil {
		return model.Quote{}, err
	}
	var patch repository.QuotePatch
	if in.Status != nil {
		st := model.QuoteStatus(*in.Status)
		patch.Status = &st
	}
	patch.EstimatedPrice = in.EstimatedPrice

	if err := s.quotes.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Quote{}, ErrNotFound
		}
		return model.Quote{}, err
	}
	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Quote{}, ErrNotFound
		}
		return model.Quote{}, err
	}
	return q, nil
}

// Attachment loads one file of a quote.
func (s *QuoteService) Attachment(ctx context.Context, quoteID, attachmentID uint64) (model.Attachment, []byte, error) {
	a, err := s.quotes.GetAttachment(ctx, quoteID, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Attachment{}, nil, ErrNotFound
		}
		return model.Attachment{}, nil, err
	}
	raw, err := DecodeContent(a)
	if err != nil {
		return model.Attachment{}, nil, err
	}
	return a, raw, nil
}
