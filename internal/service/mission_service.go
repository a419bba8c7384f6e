package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
	"github.com/jrdriving/jrdriving-api/internal/utils"
)

// adminListLimit caps the unfiltered mission list.
const adminListLimit = 100

// forward lists the transitions any authorised caller may request.
var forward = map[model.MissionStatus][]model.MissionStatus{
	model.MissionPending:    {model.MissionAssigned, model.MissionCancelled},
	model.MissionAssigned:   {model.MissionInProgress, model.MissionCancelled},
	model.MissionInProgress: {model.MissionCompleted, model.MissionCancelled},
}

// adminSkips lists the extra forward jumps reserved to admins.
var adminSkips = map[model.MissionStatus][]model.MissionStatus{
	model.MissionPending:  {model.MissionInProgress, model.MissionCompleted},
	model.MissionAssigned: {model.MissionCompleted},
}

// CanTransition reports whether role may move a mission from one status to
// another.  Terminal statuses have no way out and nothing moves backwards.
func CanTransition(from, to model.MissionStatus, role model.Role) bool {
	if from.Terminal() {
		return false
	}
	if contains(forward[from], to) {
		return true
	}
	return role == model.RoleAdmin && contains(adminSkips[from], to)
}

func contains(list []model.MissionStatus, s model.MissionStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MissionService runs the mission lifecycle.
type MissionService struct {
	missions MissionStore
	users    UserStore
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewMissionService(missions MissionStore, users UserStore, notifier Notifier, log logrus.FieldLogger) *MissionService {
	return &MissionService{missions: missions, users: users, notifier: notifier, log: log, now: time.Now}
}

// caller loads the profile of the signed-in user.  The stored role wins
// over whatever the token claims.
func (s *MissionService) caller(ctx context.Context, userID uint64) (model.Profile, error) {
	p, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, ErrUnauthenticated
		}
		return model.Profile{}, err
	}
	return p, nil
}

func (s *MissionService) load(ctx context.Context, id uint64) (model.Mission, error) {
	m, err := s.missions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Mission{}, ErrNotFound
	}
	return m, err
}

// ChangeStatus moves a mission to status on behalf of the user.  Admins may
// change any mission, drivers only the ones assigned to them.  Requesting
// the current status succeeds without writing.  The first entry into
// in_progress stamps the start time and the first entry into completed the
// end time.  A concurrent change between read and write yields ErrConflict.
func (s *MissionService) ChangeStatus(ctx context.Context, missionID uint64, status string, userID uint64) (model.Mission, error) {
	to := model.MissionStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return model.Mission{}, invalid("status", "must be one of: pending, assigned, in_progress, completed, cancelled")
	}
	p, err := s.caller(ctx, userID)
	if err != nil {
		return model.Mission{}, err
	}
	if !p.Role.Can(model.CapMissionUpdateStatus) {
		return model.Mission{}, ErrForbidden
	}
	m, err := s.load(ctx, missionID)
	if err != nil {
		return model.Mission{}, err
	}
	if p.Role != model.RoleAdmin && !m.AssignedTo(p.ID) {
		return model.Mission{}, ErrForbidden
	}
	from := m.Status
	if from == to {
		return m, nil
	}
	if !CanTransition(from, to, p.Role) {
		return model.Mission{}, invalid("status", fmt.Sprintf("cannot change from %s to %s", from, to))
	}
	if m.DriverID == nil && to != model.MissionCancelled {
		return model.Mission{}, invalid("status", "mission has no driver; assign one with PATCH /admin/missions/:missionId/assign")
	}

	now := s.now().UTC()
	u := repository.StatusUpdate{From: from, To: to}
	switch to {
	case model.MissionInProgress:
		u.StartedAt = &now
	case model.MissionCompleted:
		u.EndedAt = &now
	}
	if err := s.missions.UpdateStatus(ctx, m.ID, u); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return model.Mission{}, ErrConflict
		}
		return model.Mission{}, err
	}

	updated, err := s.missions.GetByID(ctx, m.ID)
	if err != nil {
		// The change is stored; only the event is lost.
		s.log.WithError(err).WithField("mission_id", m.ID).Warn("re-read after status change failed")
		m.Status = to
		return m, nil
	}
	s.emit(updated, from)
	s.log.WithFields(logrus.Fields{
		"mission": updated.MissionNumber, "from": string(from), "to": string(to), "by_profile": p.ID,
	}).Info("mission status changed")
	return updated, nil
}

func (s *MissionService) emit(m model.Mission, previous model.MissionStatus) {
	s.notifier.Notify(queue.MissionStatusChanged, queue.MissionStatusEvent{
		MissionNumber:  m.MissionNumber,
		Status:         string(m.Status),
		PreviousStatus: string(previous),
		Priority:       string(m.Priority),
		DriverID:       m.DriverID,
		ClientID:       m.ClientID,
		ScheduledDate:  m.ScheduledDate.UTC().Format(time.RFC3339),
		UpdatedAt:      m.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// TrackByNumber returns the public projection of a mission.
func (s *MissionService) TrackByNumber(ctx context.Context, number string) (TrackingView, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return TrackingView{}, invalid("missionNumber", "is required")
	}
	m, err := s.missions.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TrackingView{}, ErrNotFound
		}
		return TrackingView{}, err
	}
	v := TrackingView{
		MissionNumber: m.MissionNumber,
		Status:        m.Status,
		Priority:      m.Priority,
		DepartureCity: m.DepartureCity,
		ArrivalCity:   m.ArrivalCity,
		ScheduledDate: m.ScheduledDate,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.DriverID != nil {
		d, err := s.users.GetProfileByID(ctx, *m.DriverID)
		switch {
		case err == nil:
			v.DriverName = &d.FullName
		case !errors.Is(err, repository.ErrNotFound):
			return TrackingView{}, err
		}
	}
	return v, nil
}

// ListForCaller returns the missions visible to the user: all of them
// (newest first, capped) for admins, assigned ones for drivers and owned
// ones for clients.
func (s *MissionService) ListForCaller(ctx context.Context, userID uint64) ([]model.Mission, error) {
	p, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.Role.Can(model.CapMissionList) {
		return nil, ErrForbidden
	}
	f := repository.MissionFilter{Limit: adminListLimit}
	switch p.Role {
	case model.RoleDriver:
		f.DriverID = &p.ID
	case model.RoleClient:
		f.ClientID = &p.ID
	}
	return s.missions.List(ctx, f)
}

type CreateMissionInput struct {
	ClientID            uint64   `json:"clientId" validate:"required"`
	DriverID            *uint64  `json:"driverId"`
	DepartureAddress    string   `json:"departureAddress" validate:"required,max=255"`
	DepartureCity       string   `json:"departureCity" validate:"required,max=255"`
	DeparturePostalCode string   `json:"departurePostalCode" validate:"required,max=50"`
	ArrivalAddress      string   `json:"arrivalAddress" validate:"required,max=255"`
	ArrivalCity         string   `json:"arrivalCity" validate:"required,max=255"`
	ArrivalPostalCode   string   `json:"arrivalPostalCode" validate:"required,max=50"`
	ScheduledDate       string   `json:"scheduledDate" validate:"required"`
	ScheduledTime       string   `json:"scheduledTime" validate:"max=50"`
	DistanceKm          *float64 `json:"distanceKm" validate:"omitempty,gte=0"`
	Price               *float64 `json:"price" validate:"omitempty,gte=0"`
	Priority            string   `json:"priority"`
	Notes               string   `json:"notes" validate:"max=2000"`
}

// Create registers a mission for a client, optionally already assigned to a
// driver, under a freshly generated mission number.
func (s *MissionService) Create(ctx context.Context, in CreateMissionInput, userID uint64) (model.Mission, error) {
	p, err := s.caller(ctx, userID)
	if err != nil {
		return model.Mission{}, err
	}
	if !p.Role.Can(model.CapMissionManage) {
		return model.Mission{}, ErrForbidden
	}

	trim(&in.DepartureAddress, &in.DepartureCity, &in.DeparturePostalCode,
		&in.ArrivalAddress, &in.ArrivalCity, &in.ArrivalPostalCode,
		&in.ScheduledDate, &in.ScheduledTime, &in.Priority, &in.Notes)
	fields := fieldErrors{}
	if err := fields.merge(Validate(in)); err != nil {
		return model.Mission{}, err
	}
	if in.Priority != "" && !model.MissionPriority(in.Priority).Valid() {
		fields.add("priority", "must be one of normal, urgent, express")
	}
	var scheduled time.Time
	if in.ScheduledDate != "" {
		t, err := parseDate(in.ScheduledDate)
		if err != nil {
			fields.add("scheduledDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
		scheduled = t
	}
	if err := fields.err(); err != nil {
		return model.Mission{}, err
	}

	client, err := s.users.GetProfileByID(ctx, in.ClientID)
	if err != nil || client.Role != model.RoleClient {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return model.Mission{}, err
		}
		return model.Mission{}, invalid("clientId", "must reference a client profile")
	}
	status := model.MissionPending
	if in.DriverID != nil {
		driver, err := s.users.GetProfileByID(ctx, *in.DriverID)
		if err != nil || driver.Role != model.RoleDriver {
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return model.Mission{}, err
			}
			return model.Mission{}, invalid("driverId", "must reference a driver profile")
		}
		status = model.MissionAssigned
	}
	priority := model.PriorityNormal
	if in.Priority != "" {
		priority = model.MissionPriority(in.Priority)
	}

	m := model.Mission{
		ClientID:            client.ID,
		DriverID:            in.DriverID,
		DepartureAddress:    in.DepartureAddress,
		DepartureCity:       in.DepartureCity,
		DeparturePostalCode: in.DeparturePostalCode,
		ArrivalAddress:      in.ArrivalAddress,
		ArrivalCity:         in.ArrivalCity,
		ArrivalPostalCode:   in.ArrivalPostalCode,
		ScheduledDate:       scheduled,
		ScheduledTime:       optional(in.ScheduledTime),
		DistanceKm:          in.DistanceKm,
		Price:               in.Price,
		Status:              status,
		Priority:            priority,
		Notes:               optional(in.Notes),
	}
	for attempt := 0; ; attempt++ {
		m.MissionNumber, err = NewMissionNumber(s.now())
		if err != nil {
			return model.Mission{}, err
		}
		err = s.missions.Create(ctx, &m)
		if !errors.Is(err, repository.ErrDuplicate) || attempt == 2 {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Mission{}, ErrConflict
		}
		return model.Mission{}, err
	}
	s.log.WithFields(logrus.Fields{"mission": m.MissionNumber, "by_profile": p.ID}).Info("mission created")
	return m, nil
}

// NewMissionNumber returns JR-YYYYMMDD-XXXXXX with six upper-case hex
// digits.
func NewMissionNumber(now time.Time) (string, error) {
	suffix, err := utils.RandomHex(3)
	if err != nil {
		return "", err
	}
	return "JR-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(suffix), nil
}

// Assign gives a pending or assigned mission to a driver and moves it to
// assigned.
func (s *MissionService) Assign(ctx context.Context, missionID, driverProfileID, userID uint64) (model.Mission, error) {
	p, err := s.caller(ctx, userID)
	if err != nil {
		return model.Mission{}, err
	}
	if !p.Role.Can(model.CapMissionManage) {
		return model.Mission{}, ErrForbidden
	}
	if driverProfileID == 0 {
		return model.Mission{}, invalid("driverId", "is required")
	}
	m, err := s.load(ctx, missionID)
	if err != nil {
		return model.Mission{}, err
	}
	if m.Status != model.MissionPending && m.Status != model.MissionAssigned {
		return model.Mission{}, invalid("status", fmt.Sprintf("cannot assign a mission that is %s", m.Status))
	}
	driver, err := s.users.GetProfileByID(ctx, driverProfileID)
	if err != nil || driver.Role != model.RoleDriver {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return model.Mission{}, err
		}
		return model.Mission{}, invalid("driverId", "must reference a driver profile")
	}
	if m.AssignedTo(driver.ID) && m.Status == model.MissionAssigned {
		return m, nil
	}
	if err := s.missions.Assign(ctx, m.ID, driver.ID, m.Status); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return model.Mission{}, ErrConflict
		}
		return model.Mission{}, err
	}
	updated, err := s.missions.GetByID(ctx, m.ID)
	if err != nil {
		return model.Mission{}, err
	}
	s.emit(updated, m.Status)
	s.log.WithFields(logrus.Fields{"mission": updated.MissionNumber, "driver_profile": driver.ID}).Info("mission assigned")
	return updated, nil
}

func trim(ps ...*string) {
	for _, p := range ps {
		*p = strings.TrimSpace(*p)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC
// midnight).
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
