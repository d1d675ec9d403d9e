package usecase

import (
	"context"
	"time"

	"medconsult-api/internal/converter"
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/domain/repository"
	"medconsult-api/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const profileEntityName = "users"

type ProfileUsecase interface {
	GetProfile(ctx context.Context, principal *entity.Principal) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, principal *entity.Principal, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	DeleteProfile(ctx context.Context, principal *entity.Principal, confirmed bool) error
}

type profileUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	profileRepo  repository.UserProfileRepository
	auditService service.AuditService
	storeTimeout time.Duration

	// Coalesces concurrent first reads so the empty profile is created once.
	lazyCreate singleflight.Group
}

func NewProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	profileRepo repository.UserProfileRepository,
	auditService service.AuditService,
	storeTimeout time.Duration,
) ProfileUsecase {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &profileUsecase{
		db:           db,
		log:          log,
		profileRepo:  profileRepo,
		auditService: auditService,
		storeTimeout: storeTimeout,
	}
}

// GetProfile returns the caller's profile, creating an empty one on first access.
func (u *profileUsecase) GetProfile(ctx context.Context, principal *entity.Principal) (*dto.ProfileResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, u.storeTimeout)
	defer cancel()

	profile, err := u.profileRepo.FindByUID(ctx, u.db, principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find profile: %+v", err)
		return nil, storeFailure(err)
	}
	if profile != nil {
		return converter.ProfileToResponse(profile), nil
	}

	created, err, _ := u.lazyCreate.Do(principal.ID.String(), func() (interface{}, error) {
		// Other callers wait on this result, so it must outlive the caller that started it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.storeTimeout)
		defer cancel()

		existing, err := u.profileRepo.FindByUID(ctx, u.db, principal.ID)
		if err != nil || existing != nil {
			return existing, err
		}
		profile := entity.NewEmptyProfile(principal.ID)
		if err := u.profileRepo.Save(ctx, u.db, profile); err != nil {
			return nil, err
		}
		return profile, nil
	})
	if err != nil {
		u.log.Warnf("Failed to create default profile: %+v", err)
		return nil, storeFailure(err)
	}

	return converter.ProfileToResponse(created.(*entity.UserProfile)), nil
}

// UpdateProfile fully replaces the caller's profile.
func (u *profileUsecase) UpdateProfile(ctx context.Context, principal *entity.Principal, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, u.storeTimeout)
	defer cancel()

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.log.Warnf("Failed to begin transaction: %+v", tx.Error)
		return nil, storeFailure(tx.Error)
	}
	defer tx.Rollback()

	old, err := u.profileRepo.FindByUID(ctx, tx, principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find profile: %+v", err)
		return nil, storeFailure(err)
	}

	profile := entity.NewEmptyProfile(principal.ID)
	converter.ProfileFromRequest(profile, req)

	if err := u.profileRepo.Save(ctx, tx, profile); err != nil {
		u.log.Warnf("Failed to save profile: %+v", err)
		return nil, storeFailure(err)
	}

	if err := u.auditService.LogUpdate(ctx, tx, &principal.ID, entity.AuditActionProfileUpdate, profileEntityName, principal.ID.String(),
		converter.ProfileToResponse(old), converter.ProfileToResponse(profile)); err != nil {
		return nil, storeFailure(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, storeFailure(err)
	}

	return converter.ProfileToResponse(profile), nil
}

// DeleteProfile erases the caller's profile. Deleting an absent profile is a no-op.
func (u *profileUsecase) DeleteProfile(ctx context.Context, principal *entity.Principal, confirmed bool) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	ctx, cancel := context.WithTimeout(ctx, u.storeTimeout)
	defer cancel()

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.log.Warnf("Failed to begin transaction: %+v", tx.Error)
		return storeFailure(tx.Error)
	}
	defer tx.Rollback()

	old, err := u.profileRepo.FindByUID(ctx, tx, principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find profile: %+v", err)
		return storeFailure(err)
	}
	if old == nil {
		return nil
	}

	if err := u.profileRepo.Delete(ctx, tx, principal.ID); err != nil {
		u.log.Warnf("Failed to delete profile: %+v", err)
		return storeFailure(err)
	}

	if err := u.auditService.LogDelete(ctx, tx, &principal.ID, entity.AuditActionProfileDelete, profileEntityName, principal.ID.String(),
		converter.ProfileToResponse(old)); err != nil {
		return storeFailure(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return storeFailure(err)
	}

	return nil
}
