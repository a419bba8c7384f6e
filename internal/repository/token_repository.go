package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ResetTokenRepo persists password reset secrets (single 'token_hash' column).
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Replace deletes every reset token of the user and stores a new hash, so at
// most one live token exists per user.
func (r *ResetTokenRepo) Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// Consume redeems a live token: inside one transaction the row is locked,
// the user's password hash is replaced and all of the user's reset tokens
// are deleted.  A missing or expired token yields ErrNotFound and changes
// nothing, so a token can be used exactly once.
func (r *ResetTokenRepo) Consume(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM password_reset_tokens WHERE token_hash=? AND expires_at>? LIMIT 1 FOR UPDATE",
		tokenHash, now.UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, userID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return userID, nil
}

// PurgeExpired removes tokens that expired before now.
func (r *ResetTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at<=?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
