package repository

import (
	"context"

	"medconsult-api/internal/domain/entity"
	domainRepo "medconsult-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userProfileRepository struct {
	store recordStore[entity.UserProfile]
}

func NewUserProfileRepository() domainRepo.UserProfileRepository {
	return &userProfileRepository{
		store: recordStore[entity.UserProfile]{keyColumn: "uid", ownerColumn: "uid"},
	}
}

func (r *userProfileRepository) FindByUID(ctx context.Context, db *gorm.DB, uid uuid.UUID) (*entity.UserProfile, error) {
	return r.store.get(ctx, db, uid)
}

// Save fully replaces the profile, creating it when absent.
func (r *userProfileRepository) Save(ctx context.Context, db *gorm.DB, profile *entity.UserProfile) error {
	return r.store.put(ctx, db, profile)
}

func (r *userProfileRepository) Delete(ctx context.Context, db *gorm.DB, uid uuid.UUID) error {
	return r.store.remove(ctx, db, uid)
}
