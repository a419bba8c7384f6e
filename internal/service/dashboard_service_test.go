package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

func TestPunctuality(t *testing.T) {
	cases := []struct {
		completed, timed int64
		want             int
	}{
		{0, 0, 100},
		{4, 4, 100},
		{4, 3, 75},
		{3, 2, 67},
		{3, 1, 33},
		{8, 0, 0},
		{2, 5, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Punctuality(c.completed, c.timed), "%d/%d", c.timed, c.completed)
	}
}

func TestInsights(t *testing.T) {
	stable := DashboardStats{PunctualityRate: 100, TotalDrivers: 2, ActiveMissions: 6, PendingQuotes: 10}
	assert.Equal(t, []string{InsightStable}, Insights(stable))

	busy := DashboardStats{PunctualityRate: 94, TotalDrivers: 2, ActiveMissions: 7, PendingQuotes: 11}
	assert.Equal(t, []string{InsightPendingQuotes, InsightDriverLoad, InsightPunctuality}, Insights(busy))

	// With no drivers one active mission over three trips the load warning.
	assert.Equal(t, []string{InsightStable}, Insights(DashboardStats{PunctualityRate: 95, ActiveMissions: 3}))
	assert.Equal(t, []string{InsightDriverLoad}, Insights(DashboardStats{PunctualityRate: 95, ActiveMissions: 4}))
}

func newDashboard() (*DashboardService, *memDB, *memQuotes) {
	db := newMemDB()
	q := &memQuotes{}
	return NewDashboardService(memStats{db}, missionView{db}, q, memApps{q}), db, q
}

func TestDashboard_Rollups(t *testing.T) {
	svc, db, _ := newDashboard()
	db.addProfile(1, 1, model.RoleAdmin, "Admin")
	db.addProfile(2, 2, model.RoleClient, "Client")
	db.addProfile(7, 7, model.RoleDriver, "Driver")
	now := time.Now().UTC()
	p1, p2 := 100.0, 250.5
	db.addMission(model.Mission{MissionNumber: "JR-A", ClientID: 2, Status: model.MissionCompleted, Price: &p1, ActualStartTime: &now, ActualEndTime: &now})
	db.addMission(model.Mission{MissionNumber: "JR-B", ClientID: 2, Status: model.MissionCompleted, Price: &p2, ActualEndTime: &now})
	db.addMission(model.Mission{MissionNumber: "JR-C", ClientID: 2, Status: model.MissionInProgress, Price: &p1})
	db.addMission(model.Mission{MissionNumber: "JR-D", ClientID: 2, Status: model.MissionPending})

	d, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{
		TotalMissions: 4, ActiveMissions: 1, TotalDrivers: 1, TotalClients: 1,
		Revenue: 350.5, PunctualityRate: 50,
	}, d.Stats)
	require.Len(t, d.RecentMissions, 4)
	assert.Equal(t, "JR-D", d.RecentMissions[0].MissionNumber)
	assert.Equal(t, []string{InsightPunctuality}, d.AIInsights)
	assert.NotNil(t, d.PendingQuotes)
	assert.NotNil(t, d.DriverApplications)
}

func TestDashboard_RecentMissionsCapped(t *testing.T) {
	svc, db, _ := newDashboard()
	for i := 0; i < 8; i++ {
		db.addMission(model.Mission{MissionNumber: fmt.Sprintf("JR-%d", i), Status: model.MissionPending})
	}
	d, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.RecentMissions, 5)
	assert.Equal(t, "JR-7", d.RecentMissions[0].MissionNumber)
	assert.EqualValues(t, 8, d.Stats.TotalMissions)
}

func TestDashboard_QuoteWithoutFilesListsEmptyAttachments(t *testing.T) {
	svc, _, q := newDashboard()
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything)
	quotes := NewQuoteService(q, n, quietLog())

	created, err := quotes.Create(context.Background(), validQuote())
	require.NoError(t, err)

	d, err := svc.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, d.PendingQuotes, 1)
	assert.Equal(t, created.ID, d.PendingQuotes[0].ID)
	assert.NotNil(t, d.PendingQuotes[0].Attachments)
	assert.Empty(t, d.PendingQuotes[0].Attachments)

	raw, err := json.Marshal(d.PendingQuotes[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"attachments":[]`)
	assert.Contains(t, string(raw), `"status":"new"`)
}

func TestDashboard_ManyPendingQuotes(t *testing.T) {
	svc, _, q := newDashboard()
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything)
	quotes := NewQuoteService(q, n, quietLog())
	for i := 0; i < 11; i++ {
		_, err := quotes.Create(context.Background(), validQuote())
		require.NoError(t, err)
	}

	d, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 11, d.Stats.PendingQuotes)
	assert.Len(t, d.PendingQuotes, 11)
	assert.Contains(t, d.AIInsights, InsightPendingQuotes)
	assert.NotContains(t, d.AIInsights, InsightStable)
}

func TestDashboard_ApplicationsWithFiles(t *testing.T) {
	svc, _, q := newDashboard()
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything)
	rec := NewRecruitmentService(memApps{q}, n, quietLog())

	in := validApplication()
	in.Attachments = []AttachmentInput{{Name: "permis.pdf", Type: "application/pdf", Data: "aGVsbG8="}}
	a, err := rec.Submit(context.Background(), in)
	require.NoError(t, err)

	d, err := svc.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, d.DriverApplications, 1)
	assert.Equal(t, a.ID, d.DriverApplications[0].ID)
	require.Len(t, d.DriverApplications[0].Attachments, 1)
	assert.Equal(t, "permis.pdf", d.DriverApplications[0].Attachments[0].FileName)
	assert.EqualValues(t, 5, d.DriverApplications[0].Attachments[0].FileSize)
}
