package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

// attachmentTable names one of the two attachment tables and its owner
// column.  Values are compile-time constants, never request input.
type attachmentTable struct {
	name     string
	ownerCol string
}

var (
	quoteAttachments       = attachmentTable{name: "quote_attachments", ownerCol: "quote_id"}
	applicationAttachments = attachmentTable{name: "driver_application_attachments", ownerCol: "application_id"}
)

// insertTx writes all attachments of ownerID in a single statement.
func (t attachmentTable) insertTx(ctx context.Context, tx *sql.Tx, ownerID uint64, files []model.Attachment) error {
	if len(files) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, file_name, mime_type, file_size, content) VALUES ", t.name, t.ownerCol)
	args := make([]any, 0, len(files)*5)
	for i, f := range files {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, ownerID, f.FileName, nullString(f.MimeType), f.FileSize, f.Content)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// metadataFor lists attachment metadata (no content) grouped by owner.
// Every requested owner id is present in the result, possibly with an
// empty slice.
func (t attachmentTable) metadataFor(ctx context.Context, db *sql.DB, ownerIDs []uint64) (map[uint64][]model.Attachment, error) {
	out := make(map[uint64][]model.Attachment, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		out[id] = []model.Attachment{}
		args[i] = id
	}
	query := fmt.Sprintf("SELECT id, %s, file_name, mime_type, file_size, created_at FROM %s WHERE %s IN (%s) ORDER BY id",
		t.ownerCol, t.name, t.ownerCol, placeholders(len(ownerIDs)))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			a    model.Attachment
			mime sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.FileName, &mime, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.MimeType = strPtr(mime)
		out[a.OwnerID] = append(out[a.OwnerID], a)
	}
	return out, rows.Err()
}

// get loads one attachment with its content, scoped to its owner.
func (t attachmentTable) get(ctx context.Context, db *sql.DB, ownerID, id uint64) (model.Attachment, error) {
	query := fmt.Sprintf("SELECT id, %s, file_name, mime_type, file_size, content, created_at FROM %s WHERE id = ? AND %s = ? LIMIT 1",
		t.ownerCol, t.name, t.ownerCol)
	var (
		a    model.Attachment
		mime sql.NullString
	)
	err := db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&a.ID, &a.OwnerID, &a.FileName, &mime, &a.FileSize, &a.Content, &a.CreatedAt)
	if err != nil {
		return model.Attachment{}, notFound(err)
	}
	a.MimeType = strPtr(mime)
	return a, nil
}
