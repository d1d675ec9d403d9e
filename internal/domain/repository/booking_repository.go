package repository

import (
	"context"
	"time"

	"medconsult-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]entity.Booking, error)
	FindAwaitingPayment(ctx context.Context, db *gorm.DB, limit int) ([]entity.Booking, error)
	CompareAndSetStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (bool, error)
	AttachCheckout(ctx context.Context, db *gorm.DB, id uuid.UUID, reference, url string) (bool, error)
	MarkReconciled(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error
}
