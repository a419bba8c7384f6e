package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
)

func validApplication() ApplicationInput {
	return ApplicationInput{
		FullName:        "Marc Petit",
		Email:           "marc@example.com",
		Phone:           "0700000000",
		YearsExperience: 6,
		LicenseTypes:    []string{"C", " CE "},
		Regions:         []string{"Auvergne-Rhône-Alpes"},
		Availability:    "Weekdays",
	}
}

func TestYears_Unmarshal(t *testing.T) {
	var in struct {
		Y Years `json:"y"`
	}
	for raw, want := range map[string]Years{`{"y":5}`: 5, `{"y":"12"}`: 12, `{"y":" 3 "}`: 3, `{"y":null}`: 0} {
		require.NoError(t, json.Unmarshal([]byte(raw), &in), raw)
		assert.Equal(t, want, in.Y, raw)
	}
	assert.Error(t, json.Unmarshal([]byte(`{"y":"many"}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"y":2.5}`), &in))
}

func TestSubmitApplication(t *testing.T) {
	q := &memQuotes{}
	n := &mockNotifier{}
	var ev ApplicationSubmittedEvent
	n.On("Notify", queue.DriverApplicationSubmitted, mock.Anything).Run(func(args mock.Arguments) {
		ev = args.Get(1).(ApplicationSubmittedEvent)
	}).Once()
	svc := NewRecruitmentService(memApps{q}, n, quietLog())

	in := validApplication()
	in.Email = "Marc@Example.com"
	in.Attachments = []AttachmentInput{{Name: "cv.pdf", Type: "application/pdf", Data: "aGVsbG8="}}
	a, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	n.AssertExpectations(t)

	assert.Equal(t, "marc@example.com", a.Email)
	assert.Equal(t, []string{"C", "CE"}, a.LicenseTypes)
	assert.Equal(t, model.ApplicationNew, a.Status)
	assert.Nil(t, a.Message)
	assert.Equal(t, a.ID, ev.ID)
	require.Len(t, ev.Attachments, 1)
	assert.Equal(t, "aGVsbG8=", ev.Attachments[0].Data)

	att, raw, err := svc.Attachment(context.Background(), a.ID, q.appFiles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))
	assert.Equal(t, "cv.pdf", att.FileName)
}

func TestSubmitApplication_Validation(t *testing.T) {
	q := &memQuotes{}
	svc := NewRecruitmentService(memApps{q}, &mockNotifier{}, quietLog())
	var ve *ValidationError

	in := validApplication()
	in.LicenseTypes = nil
	in.Regions = []string{" "}
	in.YearsExperience = 51
	_, err := svc.Submit(context.Background(), in)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "licenseTypes")
	assert.Contains(t, ve.Fields, "regions[0]")
	assert.Contains(t, ve.Fields, "yearsExperience")

	in = validApplication()
	in.Attachments = []AttachmentInput{{Name: "x", Data: "%%%"}}
	_, err = svc.Submit(context.Background(), in)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "attachments[0].data")

	assert.Empty(t, q.apps)
}

func TestSubmitApplication_UnknownAttachment(t *testing.T) {
	svc := NewRecruitmentService(memApps{&memQuotes{}}, &mockNotifier{}, quietLog())
	_, _, err := svc.Attachment(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
