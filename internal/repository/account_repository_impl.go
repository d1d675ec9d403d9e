package repository

import (
	"context"
	"strings"

	"medconsult-api/internal/domain/entity"
	domainRepo "medconsult-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountRepository struct {
	byID    recordStore[entity.Account]
	byEmail recordStore[entity.Account]
}

func NewAccountRepository() domainRepo.AccountRepository {
	return &accountRepository{
		byID:    recordStore[entity.Account]{keyColumn: "id"},
		byEmail: recordStore[entity.Account]{keyColumn: "email"},
	}
}

func (r *accountRepository) Create(ctx context.Context, db *gorm.DB, account *entity.Account) error {
	account.Email = normalizeEmail(account.Email)
	return db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.Account, error) {
	return r.byEmail.get(ctx, db, normalizeEmail(email))
}

func (r *accountRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Account, error) {
	return r.byID.get(ctx, db, id)
}

func (r *accountRepository) UpdatePassword(ctx context.Context, db *gorm.DB, id uuid.UUID, passwordHash string) error {
	return db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
