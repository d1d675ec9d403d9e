package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recordStore holds the document-style operations shared by the typed
// repositories: put, keyed get, owner equality query and idempotent remove.
// Sorting and pagination are left to callers.
type recordStore[T any] struct {
	keyColumn   string
	ownerColumn string
}

// put creates the record, or overwrites it when its key is already set.
func (s recordStore[T]) put(ctx context.Context, db *gorm.DB, record *T) error {
	return db.WithContext(ctx).Save(record).Error
}

// get returns nil, nil when no record matches.
func (s recordStore[T]) get(ctx context.Context, db *gorm.DB, key any) (*T, error) {
	var record T
	err := db.WithContext(ctx).Where(s.keyColumn+" = ?", key).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s recordStore[T]) queryByOwner(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]T, error) {
	records := make([]T, 0)
	err := db.WithContext(ctx).Where(s.ownerColumn+" = ?", ownerID).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// remove is a no-op when the record is absent.
func (s recordStore[T]) remove(ctx context.Context, db *gorm.DB, key any) error {
	return db.WithContext(ctx).Where(s.keyColumn+" = ?", key).Delete(new(T)).Error
}
