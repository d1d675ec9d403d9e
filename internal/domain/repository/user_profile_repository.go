package repository

import (
	"context"

	"medconsult-api/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserProfileRepository interface {
	FindByUID(ctx context.Context, db *gorm.DB, uid uuid.UUID) (*entity.UserProfile, error)
	Save(ctx context.Context, db *gorm.DB, profile *entity.UserProfile) error
	Delete(ctx context.Context, db *gorm.DB, uid uuid.UUID) error
}
