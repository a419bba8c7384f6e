package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

// ApplicationRepo persists driver recruitment submissions.
type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

const applicationColumns = `id, full_name, email, phone, years_experience, license_types,
	regions, availability, has_own_vehicle, has_company, message, status, created_at, updated_at`

// Create inserts the application and its attachments atomically and
// refreshes a with the stored row.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.DriverApplication, files []model.Attachment) error {
	licenses, err := json.Marshal(nonNil(a.LicenseTypes))
	if err != nil {
		return err
	}
	regions, err := json.Marshal(nonNil(a.Regions))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO driver_applications (full_name, email, phone, years_experience,
		license_types, regions, availability, has_own_vehicle, has_company, message, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, ins,
		a.FullName, a.Email, a.Phone, a.YearsExperience,
		string(licenses), string(regions), a.Availability, a.HasOwnVehicle, a.HasCompany,
		nullString(a.Message), string(model.ApplicationNew))
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := applicationAttachments.insertTx(ctx, tx, uint64(id), files); err != nil {
		return fmt.Errorf("insert application attachments: %w", err)
	}
	stored, err := scanApplication(tx.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM driver_applications WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*a = stored
	return nil
}

// Recent returns the limit most recently created applications.
func (r *ApplicationRepo) Recent(ctx context.Context, limit int) ([]model.DriverApplication, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM driver_applications ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.DriverApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttachmentsFor returns attachment metadata keyed by application id.
func (r *ApplicationRepo) AttachmentsFor(ctx context.Context, ids []uint64) (map[uint64][]model.Attachment, error) {
	return applicationAttachments.metadataFor(ctx, r.db, ids)
}

// GetAttachment loads one attachment, including its base64 content.
func (r *ApplicationRepo) GetAttachment(ctx context.Context, applicationID, attachmentID uint64) (model.Attachment, error) {
	return applicationAttachments.get(ctx, r.db, applicationID, attachmentID)
}

func scanApplication(row rowScanner) (model.DriverApplication, error) {
	var (
		a                 model.DriverApplication
		licenses, regions []byte
		message           sql.NullString
		status            string
	)
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.YearsExperience, &licenses,
		&regions, &a.Availability, &a.HasOwnVehicle, &a.HasCompany, &message, &status,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.DriverApplication{}, notFound(err)
	}
	a.LicenseTypes = decodeList(licenses)
	a.Regions = decodeList(regions)
	a.Message = strPtr(message)
	a.Status = model.ApplicationStatus(status)
	return a, nil
}

// decodeList tolerates malformed JSON columns by returning an empty list.
func decodeList(b []byte) []string {
	var out []string
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
