package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL repositories.  It implements
// UserStore, ResetTokenStore and MissionStore.
type memDB struct {
	mu       sync.Mutex
	nextID   uint64
	users    map[uint64]model.User
	profiles map[uint64]model.Profile // by profile id
	tokens   map[string]model.PasswordResetToken
	missions map[uint64]model.Mission
}

func newMemDB() *memDB {
	return &memDB{
		nextID:   100,
		users:    map[uint64]model.User{},
		profiles: map[uint64]model.Profile{},
		tokens:   map[string]model.PasswordResetToken{},
		missions: map[uint64]model.Mission{},
	}
}

func (m *memDB) id() uint64 { m.nextID++; return m.nextID }

func (m *memDB) CreateAccount(_ context.Context, a repository.NewAccount) (model.User, model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == a.Email {
			return model.User{}, model.Profile{}, repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	u := model.User{ID: m.id(), Email: a.Email, PasswordHash: a.PasswordHash, CreatedAt: now}
	p := model.Profile{ID: m.id(), UserID: u.ID, FullName: a.FullName, Phone: a.Phone, Role: a.Role, Plan: a.Plan, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	m.profiles[p.ID] = p
	return u, p, nil
}

// addProfile seeds a user+profile with a fixed profile id.
func (m *memDB) addProfile(userID, profileID uint64, role model.Role, name string) model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = model.User{ID: userID, Email: name + "@x.com"}
	p := model.Profile{ID: profileID, UserID: userID, FullName: name, Role: role}
	m.profiles[profileID] = p
	return p
}

func (m *memDB) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memDB) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memDB) GetProfileByUserID(_ context.Context, userID uint64) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return model.Profile{}, repository.ErrNotFound
}

func (m *memDB) GetProfileByID(_ context.Context, id uint64) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return model.Profile{}, repository.ErrNotFound
}

func (m *memDB) Replace(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	m.tokens[hash] = model.PasswordResetToken{ID: m.id(), UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now()}
	return nil
}

func (m *memDB) Consume(_ context.Context, hash, passwordHash string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.Expired(now) {
		return 0, repository.ErrNotFound
	}
	u := m.users[t.UserID]
	u.PasswordHash = passwordHash
	m.users[t.UserID] = u
	for k, o := range m.tokens {
		if o.UserID == t.UserID {
			delete(m.tokens, k)
		}
	}
	return t.UserID, nil
}

func (m *memDB) addMission(ms model.Mission) model.Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms.ID == 0 {
		ms.ID = m.id()
	}
	if ms.CreatedAt.IsZero() {
		ms.CreatedAt = time.Now().UTC().Add(-time.Hour)
		ms.UpdatedAt = ms.CreatedAt
	}
	if ms.Priority == "" {
		ms.Priority = model.PriorityNormal
	}
	m.missions[ms.ID] = ms
	return ms
}

func (m *memDB) mission(id uint64) model.Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.missions[id]
}

func (m *memDB) GetByNumber(_ context.Context, number string) (model.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.missions {
		if ms.MissionNumber == number {
			return ms, nil
		}
	}
	return model.Mission{}, repository.ErrNotFound
}

func (m *memDB) List(_ context.Context, f repository.MissionFilter) ([]model.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Mission{}
	for _, ms := range m.missions {
		if f.DriverID != nil && !ms.AssignedTo(*f.DriverID) {
			continue
		}
		if f.ClientID != nil && ms.ClientID != *f.ClientID {
			continue
		}
		out = append(out, ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memDB) Create(_ context.Context, ms *model.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.missions {
		if o.MissionNumber == ms.MissionNumber {
			return repository.ErrDuplicate
		}
	}
	ms.ID = m.id()
	ms.CreatedAt = time.Now().UTC()
	ms.UpdatedAt = ms.CreatedAt
	m.missions[ms.ID] = *ms
	return nil
}

func (m *memDB) UpdateStatus(_ context.Context, id uint64, u repository.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.missions[id]
	if !ok || ms.Status != u.From {
		return repository.ErrStaleStatus
	}
	ms.Status = u.To
	if ms.ActualStartTime == nil && u.StartedAt != nil {
		t := *u.StartedAt
		ms.ActualStartTime = &t
	}
	if ms.ActualEndTime == nil && u.EndedAt != nil {
		t := *u.EndedAt
		ms.ActualEndTime = &t
	}
	ms.UpdatedAt = time.Now().UTC()
	m.missions[id] = ms
	return nil
}

func (m *memDB) Assign(_ context.Context, id, driverID uint64, from model.MissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.missions[id]
	if !ok || ms.Status != from {
		return repository.ErrStaleStatus
	}
	ms.DriverID = &driverID
	ms.Status = model.MissionAssigned
	ms.UpdatedAt = time.Now().UTC()
	m.missions[id] = ms
	return nil
}

// missionView is memDB seen as a MissionStore; memDB.GetByID is the user
// lookup.
type missionView struct{ *memDB }

func (v missionView) GetByID(_ context.Context, id uint64) (model.Mission, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ms, ok := v.missions[id]; ok {
		return ms, nil
	}
	return model.Mission{}, repository.ErrNotFound
}

// memQuotes implements QuoteStore; memApps exposes its application half.
type memQuotes struct {
	mu       sync.Mutex
	nextID   uint64
	quotes   []model.Quote
	qFiles   []model.Attachment
	apps     []model.DriverApplication
	appFiles []model.Attachment
}

func (m *memQuotes) Create(_ context.Context, q *model.Quote, files []model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	q.ID = m.nextID
	q.Status = model.QuoteNew
	q.CreatedAt = time.Now().UTC()
	q.UpdatedAt = q.CreatedAt
	m.quotes = append(m.quotes, *q)
	for _, f := range files {
		m.nextID++
		f.ID, f.OwnerID, f.CreatedAt = m.nextID, q.ID, time.Now().UTC()
		m.qFiles = append(m.qFiles, f)
	}
	return nil
}

func (m *memQuotes) GetByID(_ context.Context, id uint64) (model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotes {
		if q.ID == id {
			return q, nil
		}
	}
	return model.Quote{}, repository.ErrNotFound
}

func (m *memQuotes) ListByStatus(_ context.Context, st model.QuoteStatus) ([]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Quote{}
	for i := len(m.quotes) - 1; i >= 0; i-- {
		if m.quotes[i].Status == st {
			out = append(out, m.quotes[i])
		}
	}
	return out, nil
}

func (m *memQuotes) Update(_ context.Context, id uint64, p repository.QuotePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.quotes {
		if q.ID == id {
			if p.Status != nil {
				m.quotes[i].Status = *p.Status
			}
			if p.EstimatedPrice != nil {
				v := *p.EstimatedPrice
				m.quotes[i].EstimatedPrice = &v
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func filesFor(all []model.Attachment, ids []uint64) map[uint64][]model.Attachment {
	out := map[uint64][]model.Attachment{}
	for _, id := range ids {
		out[id] = []model.Attachment{}
	}
	for _, f := range all {
		if _, ok := out[f.OwnerID]; ok {
			meta := f
			meta.Content = ""
			out[f.OwnerID] = append(out[f.OwnerID], meta)
		}
	}
	return out
}

func (m *memQuotes) AttachmentsFor(_ context.Context, ids []uint64) (map[uint64][]model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filesFor(m.qFiles, ids), nil
}

func (m *memQuotes) GetAttachment(_ context.Context, ownerID, id uint64) (model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.qFiles {
		if f.ID == id && f.OwnerID == ownerID {
			return f, nil
		}
	}
	return model.Attachment{}, repository.ErrNotFound
}

// memApps adapts memQuotes to ApplicationStore.
type memApps struct{ *memQuotes }

func (m memApps) Create(_ context.Context, a *model.DriverApplication, files []model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.Status = model.ApplicationNew
	a.CreatedAt = time.Now().UTC()
	m.apps = append(m.apps, *a)
	for _, f := range files {
		m.nextID++
		f.ID, f.OwnerID = m.nextID, a.ID
		m.appFiles = append(m.appFiles, f)
	}
	return nil
}

func (m memApps) Recent(_ context.Context, limit int) ([]model.DriverApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.DriverApplication{}
	for i := len(m.apps) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.apps[i])
	}
	return out, nil
}

func (m memApps) AttachmentsFor(_ context.Context, ids []uint64) (map[uint64][]model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filesFor(m.appFiles, ids), nil
}

func (m memApps) GetAttachment(_ context.Context, ownerID, id uint64) (model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.appFiles {
		if f.ID == id && f.OwnerID == ownerID {
			return f, nil
		}
	}
	return model.Attachment{}, repository.ErrNotFound
}

// memStats computes StatsStore answers from memDB the way the SQL does.
type memStats struct{ db *memDB }

func (s memStats) MissionTotals(context.Context) (repository.MissionTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var t repository.MissionTotals
	for _, m := range s.db.missions {
		t.Total++
		if m.Status.Active() {
			t.Active++
		}
		if m.Status == model.MissionCompleted {
			t.Completed++
			if m.ActualStartTime != nil && m.ActualEndTime != nil {
				t.Timed++
			}
			if m.Price != nil {
				t.Revenue += *m.Price
			}
		}
	}
	return t, nil
}

func (s memStats) ProfileCounts(context.Context) (int64, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var d, c int64
	for _, p := range s.db.profiles {
		switch p.Role {
		case model.RoleDriver:
			d++
		case model.RoleClient:
			c++
		}
	}
	return d, c, nil
}

// mockNotifier records notifications.
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(kind queue.Kind, payload any) { m.Called(kind, payload) }

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
