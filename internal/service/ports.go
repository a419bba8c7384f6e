package service

import (
	"context"
	"time"

	"github.com/jrdriving/jrdriving-api/internal/model"
	"github.com/jrdriving/jrdriving-api/internal/queue"
	"github.com/jrdriving/jrdriving-api/internal/repository"
)

// Storage and delivery dependencies, declared where they are consumed.  The
// repository package satisfies the stores; notify.Notifier satisfies
// Notifier.

type UserStore interface {
	CreateAccount(ctx context.Context, a repository.NewAccount) (model.User, model.Profile, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetProfileByUserID(ctx context.Context, userID uint64) (model.Profile, error)
	GetProfileByID(ctx context.Context, id uint64) (model.Profile, error)
}

type ResetTokenStore interface {
	Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uint64, error)
}

type MissionStore interface {
	GetByID(ctx context.Context, id uint64) (model.Mission, error)
	GetByNumber(ctx context.Context, number string) (model.Mission, error)
	List(ctx context.Context, f repository.MissionFilter) ([]model.Mission, error)
	Create(ctx context.Context, m *model.Mission) error
	UpdateStatus(ctx context.Context, id uint64, u repository.StatusUpdate) error
	Assign(ctx context.Context, id, driverID uint64, from model.MissionStatus) error
}

type QuoteStore interface {
	Create(ctx context.Context, q *model.Quote, files []model.Attachment) error
	GetByID(ctx context.Context, id uint64) (model.Quote, error)
	ListByStatus(ctx context.Context, status model.QuoteStatus) ([]model.Quote, error)
	Update(ctx context.Context, id uint64, p repository.QuotePatch) error
	AttachmentsFor(ctx context.Context, quoteIDs []uint64) (map[uint64][]model.Attachment, error)
	GetAttachment(ctx context.Context, quoteID, attachmentID uint64) (model.Attachment, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, a *model.DriverApplication, files []model.Attachment) error
	Recent(ctx context.Context, limit int) ([]model.DriverApplication, error)
	AttachmentsFor(ctx context.Context, ids []uint64) (map[uint64][]model.Attachment, error)
	GetAttachment(ctx context.Context, applicationID, attachmentID uint64) (model.Attachment, error)
}

type StatsStore interface {
	MissionTotals(ctx context.Context) (repository.MissionTotals, error)
	ProfileCounts(ctx context.Context) (drivers, clients int64, err error)
}

// Notifier delivers an event without blocking the caller.
type Notifier interface {
	Notify(kind queue.Kind, payload any)
}
