package service

import (
	"context"
	"math"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/repository"
)

const (
	recentLimit           = 5
	pendingQuoteThreshold = 10
	missionsPerDriver     = 3
	punctualityThreshold  = 95
)

// Advisory messages shown on the dashboard.
const (
	InsightPendingQuotes = "Many pending quotes: consider triggering an automated follow-up campaign."
	InsightDriverLoad    = "High load on drivers: identify available profiles or plan reinforcements."
	InsightPunctuality   = "Punctuality is dropping: review express missions to adjust logistics buffers."
	InsightStable        = "Activity is stable: keep quality up and automate follow-ups with loyal clients."
)

type DashboardStats struct {
	TotalMissions   int64   `json:"totalMissions"`
	ActiveMissions  int64   `json:"activeMissions"`
	TotalDrivers    int64   `json:"totalDrivers"`
	TotalClients    int64   `json:"totalClients"`
	PendingQuotes   int64   `json:"pendingQuotes"`
	Revenue         float64 `json:"revenue"`
	PunctualityRate int     `json:"punctualityRate"`
}

type Dashboard struct {
	Stats              DashboardStats               `json:"stats"`
	RecentMissions     []MissionView                `json:"recentMissions"`
	PendingQuotes      []QuoteWithAttachments       `json:"pendingQuotes"`
	DriverApplications []ApplicationWithAttachments `json:"driverApplications"`
	AIInsights         []string                     `json:"aiInsights"`
}

// DashboardService computes the admin rollups.  It only reads.
type DashboardService struct {
	stats    StatsStore
	missions MissionStore
	quotes   QuoteStore
	apps     ApplicationStore
}

func NewDashboardService(stats StatsStore, missions MissionStore, quotes QuoteStore, apps ApplicationStore) *DashboardService {
	return &DashboardService{stats: stats, missions: missions, quotes: quotes, apps: apps}
}

// Build assembles the dashboard payload.
func (s *DashboardService) Build(ctx context.Context) (Dashboard, error) {
	totals, err := s.stats.MissionTotals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	drivers, clients, err := s.stats.ProfileCounts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.missions.List(ctx, repository.MissionFilter{Limit: recentLimit})
	if err != nil {
		return Dashboard{}, err
	}
	quotes, err := s.quotes.ListByStatus(ctx, model.QuoteNew)
	if err != nil {
		return Dashboard{}, err
	}
	quoteFiles, err := s.quotes.AttachmentsFor(ctx, quoteIDs(quotes))
	if err != nil {
		return Dashboard{}, err
	}
	apps, err := s.apps.Recent(ctx, recentLimit)
	if err != nil {
		return Dashboard{}, err
	}
	appFiles, err := s.apps.AttachmentsFor(ctx, applicationIDs(apps))
	if err != nil {
		return Dashboard{}, err
	}

	stats := DashboardStats{
		TotalMissions:   totals.Total,
		ActiveMissions:  totals.Active,
		TotalDrivers:    drivers,
		TotalClients:    clients,
		PendingQuotes:   int64(len(quotes)),
		Revenue:         totals.Revenue,
		PunctualityRate: Punctuality(totals.Completed, totals.Timed),
	}
	d := Dashboard{
		Stats:              stats,
		RecentMissions:     missionViews(recent),
		PendingQuotes:      make([]QuoteWithAttachments, len(quotes)),
		DriverApplications: make([]ApplicationWithAttachments, len(apps)),
		AIInsights:         Insights(stats),
	}
	for i, q := range quotes {
		d.PendingQuotes[i] = QuoteWithAttachments{QuoteView: NewQuoteView(q), Attachments: attachmentMetas(quoteFiles[q.ID])}
	}
	for i, a := range apps {
		d.DriverApplications[i] = ApplicationWithAttachments{ApplicationView: NewApplicationView(a), Attachments: attachmentMetas(appFiles[a.ID])}
	}
	return d, nil
}

// Punctuality is the rounded share of completed missions that carry both
// actual timestamps, in [0,100].  With nothing completed it is 100.
func Punctuality(completed, timed int64) int {
	if completed <= 0 {
		return 100
	}
	rate := int(math.Round(float64(timed) / float64(completed) * 100))
	if rate > 100 {
		return 100
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// Insights derives advisory strings from the stats.  It never returns an
// empty list.
func Insights(s DashboardStats) []string {
	var out []string
	if s.PendingQuotes > pendingQuoteThreshold {
		out = append(out, InsightPendingQuotes)
	}
	if s.ActiveMissions > max(s.TotalDrivers, 1)*missionsPerDriver {
		out = append(out, InsightDriverLoad)
	}
	if s.PunctualityRate < punctualityThreshold {
		out = append(out, InsightPunctuality)
	}
	if len(out) == 0 {
		out = append(out, InsightStable)
	}
	return out
}

func quoteIDs(qs []model.Quote) []uint64 {
	ids := make([]uint64, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func applicationIDs(as []model.DriverApplication) []uint64 {
	ids := make([]uint64, len(as))
	for i, a := range as {
		ids[i] = a.ID
	}
	return ids
}
