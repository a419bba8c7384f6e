package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
)

// RecruitmentService accepts driver applications.
type RecruitmentService struct {
	apps     ApplicationStore
	notifier Notifier
	log      logrus.FieldLogger
}

func NewRecruitmentService(apps ApplicationStore, notifier Notifier, log logrus.FieldLogger) *RecruitmentService {
	return &RecruitmentService{apps: apps, notifier: notifier, log: log}
}

// Years accepts a JSON number or a numeric string.
type Years int

func (y *Years) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(b)), `"`))
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return fmt.Errorf("yearsExperience: %q is not a whole number", s)
	}
	*y = Years(f)
	return nil
}

type ApplicationInput struct {
	FullName        string            `json:"fullName" validate:"required,max=255"`
	Email           string            `json:"email" validate:"required,email,max=255"`
	Phone           string            `json:"phone" validate:"required,min=4,max=30"`
	YearsExperience Years             `json:"yearsExperience" validate:"gte=0,lte=50"`
	LicenseTypes    []string          `json:"licenseTypes" validate:"required,min=1,dive,required,max=50"`
	Regions         []string          `json:"regions" validate:"required,min=1,dive,required,max=100"`
	Availability    string            `json:"availability" validate:"required,max=255"`
	HasOwnVehicle   bool              `json:"hasOwnVehicle"`
	HasCompany      bool              `json:"hasCompany"`
	Message         string            `json:"message" validate:"max=2000"`
	Attachments     []AttachmentInput `json:"attachments" validate:"max=5,dive"`
}

// Submit stores an application and its files, then forwards it to the
// recruitment automations.
func (s *RecruitmentService) Submit(ctx context.Context, in ApplicationInput) (model.DriverApplication, error) {
	trim(&in.FullName, &in.Email, &in.Phone, &in.Availability, &in.Message)
	in.Email = strings.ToLower(in.Email)
	for i := range in.LicenseTypes {
		in.LicenseTypes[i] = strings.TrimSpace(in.LicenseTypes[i])
	}
	for i := range in.Regions {
		in.Regions[i] = strings.TrimSpace(in.Regions[i])
	}

	fields := fieldErrors{}
	if err := fields.merge(Validate(in)); err != nil {
		return model.DriverApplication{}, err
	}
	files := decodeAttachments(in.Attachments, fields)
	if err := fields.err(); err != nil {
		return model.DriverApplication{}, err
	}

	a := model.DriverApplication{
		FullName:        in.FullName,
		Email:           in.Email,
		Phone:           in.Phone,
		YearsExperience: int(in.YearsExperience),
		LicenseTypes:    in.LicenseTypes,
		Regions:         in.Regions,
		Availability:    in.Availability,
		HasOwnVehicle:   in.HasOwnVehicle,
		HasCompany:      in.HasCompany,
		Message:         optional(in.Message),
		Status:          model.ApplicationNew,
	}
	if err := s.apps.Create(ctx, &a, files); err != nil {
		return model.DriverApplication{}, err
	}
	s.notifier.Notify(queue.DriverApplicationSubmitted, ApplicationSubmittedEvent{
		ApplicationView: NewApplicationView(a),
		Attachments:     attachmentPayloads(files),
	})
	s.log.WithFields(logrus.Fields{"application_id": a.ID, "attachments": len(files)}).Info("driver application submitted")
	return a, nil
}

// Attachment loads one file of an application.
func (s *RecruitmentService) Attachment(ctx context.Context, applicationID, attachmentID uint64) (model.Attachment, []byte, error) {
	a, err := s.apps.GetAttachment(ctx, applicationID, attachmentID)
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

var _ json.Unmarshaler = (*Years)(nil)
