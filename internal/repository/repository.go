package repository

import (
	"context"
	"errors"
	"time"

	"parkhub/internal/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *db.User) error
	FindByID(ctx context.Context, id int) (*db.User, error)
	FindByUsername(ctx context.Context, username string) (*db.User, error)
	FindByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

type SlotRepository interface {
	Seed(ctx context.Context, codes []string) error
	Count(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, code, status string) error
}

type ParkingRepository interface {
	Create(ctx context.Context, session *db.ParkingSession) error
	LatestBySlot(ctx context.Context, slotCode string) (*db.ParkingSession, error)
	SetExitAndAmount(ctx context.Context, id int, exit time.Time, amount int) error
	MarkPaid(ctx context.Context, id int, exit time.Time, amount int) error
	// OpenSessions returns, for each slot with parking history, the most recent
	// session when it is still unpaid. Used to rebuild the slot registry.
	OpenSessions(ctx context.Context) ([]db.ParkingSession, error)
	SumPaidAmount(ctx context.Context) (int, error)
	RecentPaid(ctx context.Context, limit int) ([]db.ParkingSession, error)
}
