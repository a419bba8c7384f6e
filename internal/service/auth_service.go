package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jrdriving/jrdriving-api/internal/config"
	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
	"github.com/jrdriving/jrdriving-api/internal/utils"
)

// defaultPlan is attached to every profile created by public signup.
const defaultPlan = "free"

// AuthService owns accounts, session tokens and password recovery.
type AuthService struct {
	users    UserStore
	resets   ResetTokenStore
	notifier Notifier
	log      logrus.FieldLogger

	secret     string
	tokenTTL   time.Duration
	resetTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(cfg config.Config, users UserStore, resets ResetTokenStore, notifier Notifier, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:      users,
		resets:     resets,
		notifier:   notifier,
		log:        log,
		secret:     cfg.JWTSecret,
		tokenTTL:   cfg.TokenTTL,
		resetTTL:   cfg.ResetTokenTTL,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID uint64
	Role   model.Role
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,min=4,max=30"`
	Role     string `json:"role" validate:"omitempty,oneof=client driver"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required,min=16,max=256"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates a user and its profile and signs the new account in.
// Only client and driver may be chosen; the default is client.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, utils.AccessToken, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := Validate(in); err != nil {
		return Session{}, utils.AccessToken{}, err
	}
	role := model.RoleClient
	if in.Role != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok || !r.SignupAllowed() {
			return Session{}, utils.AccessToken{}, invalid("role", "must be one of: client, driver")
		}
		role = r
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return Session{}, utils.AccessToken{}, err
	}
	plan := defaultPlan
	acct := repository.NewAccount{
		Email: in.Email, PasswordHash: hash, FullName: in.FullName, Role: role, Plan: &plan,
	}
	if in.Phone != "" {
		acct.Phone = &in.Phone
	}
	u, p, err := s.users.CreateAccount(ctx, acct)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, utils.AccessToken{}, ErrConflict
		}
		return Session{}, utils.AccessToken{}, err
	}
	tok, err := s.IssueToken(u.ID, p.Role)
	if err != nil {
		return Session{}, utils.AccessToken{}, err
	}
	return newSession(u, p), tok, nil
}

// Authenticate checks credentials.  Unknown email, wrong password and a user
// without profile all yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (Session, utils.AccessToken, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := Validate(in); err != nil {
		return Session{}, utils.AccessToken{}, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(in.Password)
			return Session{}, utils.AccessToken{}, ErrInvalidCredentials
		}
		return Session{}, utils.AccessToken{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return Session{}, utils.AccessToken{}, ErrInvalidCredentials
	}
	p, err := s.users.GetProfileByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, utils.AccessToken{}, ErrInvalidCredentials
		}
		return Session{}, utils.AccessToken{}, err
	}
	tok, err := s.IssueToken(u.ID, p.Role)
	if err != nil {
		return Session{}, utils.AccessToken{}, err
	}
	return newSession(u, p), tok, nil
}

// IssueToken signs a session token for userID.
func (s *AuthService) IssueToken(userID uint64, role model.Role) (utils.AccessToken, error) {
	return utils.NewAccessToken(s.secret, userID, string(role), s.tokenTTL)
}

// VerifyToken decodes raw or fails with ErrInvalidToken.
func (s *AuthService) VerifyToken(raw string) (Identity, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	uid, err := claims.UserID()
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: uid, Role: role}, nil
}

// Session re-reads the account behind a verified token.
func (s *AuthService) Session(ctx context.Context, userID uint64) (Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}
	p, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}
	return newSession(u, p), nil
}

// ForgotPassword issues a reset secret when the email belongs to an account
// and hands it to the password reset webhooks.  An unknown email is not an
// error.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := Validate(in); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	secret, err := utils.NewResetSecret(s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.resets.Replace(ctx, u.ID, utils.HashSecret(secret.Raw), secret.Exp); err != nil {
		return err
	}
	s.notifier.Notify(queue.PasswordResetRequested, queue.PasswordResetEvent{
		Email:      u.Email,
		ResetToken: secret.Raw,
		ExpiresAt:  secret.Exp.UTC().Format(time.RFC3339),
	})
	s.log.WithField("user_id", u.ID).Info("password reset requested")
	return nil
}

// ResetPassword redeems a reset secret.  A secret works exactly once and
// only before it expires; otherwise ErrInvalidResetToken.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := Validate(in); err != nil {
		return err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return err
	}
	uid, err := s.resets.Consume(ctx, utils.HashSecret(in.Token), hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	s.log.WithField("user_id", uid).Info("password reset completed")
	return nil
}
