package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

// QuoteRepo persists quote requests and their attachments.
type QuoteRepo struct {
	db *sql.DB
}

func NewQuoteRepo(db *sql.DB) *QuoteRepo { return &QuoteRepo{db: db} }

const quoteColumns = `id, full_name, email, phone, company_name, vehicle_type,
	departure_location, arrival_location, preferred_date, message, status,
	estimated_price, created_at, updated_at`

// Create inserts the quote and its attachments atomically and refreshes q
// with the stored row.
func (r *QuoteRepo) Create(ctx context.Context, q *model.Quote, files []model.Attachment) error {
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

	const ins = `INSERT INTO quotes (full_name, email, phone, company_name, vehicle_type,
		departure_location, arrival_location, preferred_date, message, status)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, ins,
		q.FullName, q.Email, q.Phone, nullString(q.CompanyName), q.VehicleType,
		q.DepartureLocation, q.ArrivalLocation, nullTime(q.PreferredDate), nullString(q.Message),
		string(model.QuoteNew))
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := quoteAttachments.insertTx(ctx, tx, uint64(id), files); err != nil {
		return fmt.Errorf("insert quote attachments: %w", err)
	}
	stored, err := scanQuote(tx.QueryRowContext(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*q = stored
	return nil
}

// GetByID loads a quote.
func (r *QuoteRepo) GetByID(ctx context.Context, id uint64) (model.Quote, error) {
	return scanQuote(r.db.QueryRowContext(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE id = ? LIMIT 1", id))
}

// ListByStatus returns quotes in the given status, newest first.
func (r *QuoteRepo) ListByStatus(ctx context.Context, status model.QuoteStatus) ([]model.Quote, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+quoteColumns+" FROM quotes WHERE status = ? ORDER BY created_at DESC, id DESC", string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuotePatch lists the admin-editable fields; nil means unchanged.
type QuotePatch struct {
	Status         *model.QuoteStatus
	EstimatedPrice *float64
}

// Update applies p to the quote.  An empty patch is a no-op.
func (r *QuoteRepo) Update(ctx context.Context, id uint64, p QuotePatch) error {
	var (
		sets []string
		args []any
	)
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.EstimatedPrice != nil {
		sets = append(sets, "estimated_price = ?")
		args = append(args, *p.EstimatedPrice)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE quotes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for a matched row whose values did not change.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// AttachmentsFor returns attachment metadata keyed by quote id.
func (r *QuoteRepo) AttachmentsFor(ctx context.Context, quoteIDs []uint64) (map[uint64][]model.Attachment, error) {
	return quoteAttachments.metadataFor(ctx, r.db, quoteIDs)
}

// GetAttachment loads one attachment, including its base64 content.
func (r *QuoteRepo) GetAttachment(ctx context.Context, quoteID, attachmentID uint64) (model.Attachment, error) {
	return quoteAttachments.get(ctx, r.db, quoteID, attachmentID)
}

func scanQuote(row rowScanner) (model.Quote, error) {
	var (
		q                      model.Quote
		company, message       sql.NullString
		preferred              sql.NullTime
		estimated              sql.NullFloat64
		status                 string
	)
	err := row.Scan(&q.ID, &q.FullName, &q.Email, &q.Phone, &company, &q.VehicleType,
		&q.DepartureLocation, &q.ArrivalLocation, &preferred, &message, &status,
		&estimated, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return model.Quote{}, notFound(err)
	}
	q.CompanyName = strPtr(company)
	q.PreferredDate = timePtr(preferred)
	q.Message = strPtr(message)
	q.Status = model.QuoteStatus(status)
	q.EstimatedPrice = floatPtr(estimated)
	return q, nil
}
