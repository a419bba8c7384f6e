package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

// MissionRepo provides persistence for missions.  All timestamps are stored
// in UTC.  Status writes are conditional on the status the caller last read
// so concurrent writers cannot silently overwrite each other.
type MissionRepo struct {
	db *sql.DB
}

// NewMissionRepo returns a new MissionRepo bound to the given database.
func NewMissionRepo(db *sql.DB) *MissionRepo { return &MissionRepo{db: db} }

const missionColumns = `id, client_id, driver_id, mission_number,
	departure_address, departure_city, departure_postal_code,
	arrival_address, arrival_city, arrival_postal_code,
	scheduled_date, scheduled_time, actual_start_time, actual_end_time,
	distance_km, price, status, priority, notes, created_at, updated_at`

// GetByID loads a mission by primary key.
func (r *MissionRepo) GetByID(ctx context.Context, id uint64) (model.Mission, error) {
	return scanMission(r.db.QueryRowContext(ctx,
		"SELECT "+missionColumns+" FROM missions WHERE id = ? LIMIT 1", id))
}

// GetByNumber loads a mission by its public tracking number.
func (r *MissionRepo) GetByNumber(ctx context.Context, number string) (model.Mission, error) {
	return scanMission(r.db.QueryRowContext(ctx,
		"SELECT "+missionColumns+" FROM missions WHERE mission_number = ? LIMIT 1", number))
}

// MissionFilter narrows List.  Nil fields are ignored.
type MissionFilter struct {
	DriverID *uint64
	ClientID *uint64
	Limit    int
}

// List returns missions newest first.
func (r *MissionRepo) List(ctx context.Context, f MissionFilter) ([]model.Mission, error) {
	q := "SELECT " + missionColumns + " FROM missions"
	var (
		where []string
		args  []any
	)
	if f.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, *f.DriverID)
	}
	if f.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *f.ClientID)
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts m and fills in the generated id and timestamps.
func (r *MissionRepo) Create(ctx context.Context, m *model.Mission) error {
	const q = `INSERT INTO missions (client_id, driver_id, mission_number,
		departure_address, departure_city, departure_postal_code,
		arrival_address, arrival_city, arrival_postal_code,
		scheduled_date, scheduled_time, distance_km, price, status, priority, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		m.ClientID, nullUint(m.DriverID), m.MissionNumber,
		m.DepartureAddress, m.DepartureCity, m.DeparturePostalCode,
		m.ArrivalAddress, m.ArrivalCity, m.ArrivalPostalCode,
		m.ScheduledDate.UTC(), nullString(m.ScheduledTime), nullFloat(m.DistanceKm), nullFloat(m.Price),
		string(m.Status), string(m.Priority), nullString(m.Notes))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert mission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = stored
	return nil
}

// StatusUpdate describes one lifecycle write.  StartedAt and EndedAt are only
// applied to columns that are still NULL.
type StatusUpdate struct {
	From      model.MissionStatus
	To        model.MissionStatus
	StartedAt *time.Time
	EndedAt   *time.Time
}

// UpdateStatus applies u as a single row update keyed by id and guarded by
// the previous status.  ErrStaleStatus means the row moved on meanwhile (or
// vanished).
func (r *MissionRepo) UpdateStatus(ctx context.Context, id uint64, u StatusUpdate) error {
	const q = `UPDATE missions
		SET status = ?,
		    actual_start_time = COALESCE(actual_start_time, ?),
		    actual_end_time = COALESCE(actual_end_time, ?)
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(u.To), nullTime(u.StartedAt), nullTime(u.EndedAt), id, string(u.From))
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Assign sets the driver and moves the mission to assigned, guarded by the
// previous status like UpdateStatus.
func (r *MissionRepo) Assign(ctx context.Context, id, driverID uint64, from model.MissionStatus) error {
	const q = `UPDATE missions SET driver_id = ?, status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, driverID, string(model.MissionAssigned), id, string(from))
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}

func scanMission(row rowScanner) (model.Mission, error) {
	var (
		m                    model.Mission
		driverID             sql.NullInt64
		scheduledTime, notes sql.NullString
		start, end           sql.NullTime
		distance, price      sql.NullFloat64
		status, priority     string
	)
	err := row.Scan(&m.ID, &m.ClientID, &driverID, &m.MissionNumber,
		&m.DepartureAddress, &m.DepartureCity, &m.DeparturePostalCode,
		&m.ArrivalAddress, &m.ArrivalCity, &m.ArrivalPostalCode,
		&m.ScheduledDate, &scheduledTime, &start, &end,
		&distance, &price, &status, &priority, &notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Mission{}, notFound(err)
	}
	if driverID.Valid {
		d := uint64(driverID.Int64)
		m.DriverID = &d
	}
	m.ScheduledTime = strPtr(scheduledTime)
	m.ActualStartTime = timePtr(start)
	m.ActualEndTime = timePtr(end)
	m.DistanceKm = floatPtr(distance)
	m.Price = floatPtr(price)
	m.Status = model.MissionStatus(status)
	m.Priority = model.MissionPriority(priority)
	m.Notes = strPtr(notes)
	return m, nil
}
