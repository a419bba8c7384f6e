package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jrdriving/jrdriving-api/internal/model"
)

// UserRepo persists users and their profiles.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewAccount carries the fields written at signup.
type NewAccount struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         model.Role
	Plan         *string
}

const profileColumns = "id,user_id,full_name,phone,role,plan,avatar_url,created_at,updated_at"

// CreateAccount inserts the user and its profile in one transaction and
// returns both rows as stored.
func (r *UserRepo) CreateAccount(ctx context.Context, a NewAccount) (model.User, model.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, model.Profile{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?,?)",
		email, a.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, model.Profile{}, ErrEmailExists
		}
		return model.User{}, model.Profile{}, fmt.Errorf("insert user: %w", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return model.User{}, model.Profile{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id, full_name, phone, role, plan) VALUES (?,?,?,?,?)",
		uid, a.FullName, nullString(a.Phone), string(a.Role), nullString(a.Plan)); err != nil {
		return model.User{}, model.Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	u, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM users WHERE id=?", uid))
	if err != nil {
		return model.User{}, model.Profile{}, err
	}
	p, err := scanProfile(tx.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id=?", uid))
	if err != nil {
		return model.User{}, model.Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, model.Profile{}, err
	}
	committed = true
	return u, p, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM users WHERE id=? LIMIT 1", id))
}

// GetProfileByUserID fetches the profile owned by userID.
func (r *UserRepo) GetProfileByUserID(ctx context.Context, userID uint64) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id=? LIMIT 1", userID))
}

// GetProfileByID fetches a profile by its own id.
func (r *UserRepo) GetProfileByID(ctx context.Context, id uint64) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id=? LIMIT 1", id))
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var (
		p                     model.Profile
		role                  string
		phone, plan, avatar   sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.FullName, &phone, &role, &plan, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Profile{}, notFound(err)
	}
	p.Role = model.Role(role)
	p.Phone = strPtr(phone)
	p.Plan = strPtr(plan)
	p.AvatarURL = strPtr(avatar)
	return p, nil
}
