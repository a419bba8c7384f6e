package repository

import (
	"context"
	"database/sql"
)

// StatsRepo runs the aggregate queries behind the admin dashboard.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// MissionTotals summarises the missions table in a single scan.
type MissionTotals struct {
	Total     int64
	Active    int64   // assigned or in_progress
	Completed int64
	Timed     int64   // completed with both actual start and end set
	Revenue   float64 // sum of price over completed missions
}

// MissionTotals returns the mission rollup.
func (r *StatsRepo) MissionTotals(ctx context.Context) (MissionTotals, error) {
	const q = `SELECT
		COUNT(*),
		COALESCE(SUM(status IN ('assigned','in_progress')), 0),
		COALESCE(SUM(status = 'completed'), 0),
		COALESCE(SUM(status = 'completed' AND actual_start_time IS NOT NULL AND actual_end_time IS NOT NULL), 0),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN price END), 0)
		FROM missions`
	var t MissionTotals
	err := r.db.QueryRowContext(ctx, q).Scan(&t.Total, &t.Active, &t.Completed, &t.Timed, &t.Revenue)
	return t, err
}

// ProfileCounts returns the number of driver and client profiles.
func (r *StatsRepo) ProfileCounts(ctx context.Context) (drivers, clients int64, err error) {
	const q = `SELECT
		COALESCE(SUM(role = 'driver'), 0),
		COALESCE(SUM(role = 'client'), 0)
		FROM profiles`
	err = r.db.QueryRowContext(ctx, q).Scan(&drivers, &clients)
	return drivers, clients, err
}
