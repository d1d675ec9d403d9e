package repository

import (
	"context"
	"time"

	"medconsult-api/internal/domain/entity"
	domainRepo "medconsult-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct {
	store recordStore[entity.Booking]
}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{
		store: recordStore[entity.Booking]{keyColumn: "id", ownerColumn: "uid"},
	}
}

func (r *bookingRepository) Create(ctx context.Context, db *gorm.DB, booking *entity.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	return r.store.get(ctx, db, id)
}

func (r *bookingRepository) FindByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]entity.Booking, error) {
	return r.store.queryByOwner(ctx, db, ownerID)
}

// FindAwaitingPayment returns pending bookings that already have a checkout
// link. Bookings never checked come first, then the least recently checked,
// so a backlog of abandoned links cannot hide newer ones.
func (r *bookingRepository) FindAwaitingPayment(ctx context.Context, db *gorm.DB, limit int) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.WithContext(ctx).
		Where("status = ? AND checkout_reference <> ''", entity.BookingStatusPending).
		Order(`reconciled_at IS NOT NULL, reconciled_at ASC, "timestamp" ASC, id ASC`).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CompareAndSetStatus moves a booking from one status to another only if it is
// still in the expected status. Returns false when another writer got there first.
func (r *bookingRepository) CompareAndSetStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.BookingStatus) (bool, error) {
	result := db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected == 1, result.Error
}

// AttachCheckout records the checkout link while the booking is still pending.
func (r *bookingRepository) AttachCheckout(ctx context.Context, db *gorm.DB, id uuid.UUID, reference, url string) (bool, error) {
	result := db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, entity.BookingStatusPending).
		Updates(map[string]interface{}{
			"checkout_reference": reference,
			"checkout_url":       url,
		})
	return result.RowsAffected == 1, result.Error
}

// MarkReconciled stamps the bookings a reconcile pass has checked. It leaves
// updated_at alone.
func (r *bookingRepository) MarkReconciled(ctx context.Context, db *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&entity.Booking{}).
		Where("id IN ?", ids).
		UpdateColumn("reconciled_at", at).Error
}
