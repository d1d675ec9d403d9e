package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	domainrepo "medconsult-api/internal/domain/repository"
	"medconsult-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestProfileUsecase(t *testing.T) (*gorm.DB, ProfileUsecase) {
	t.Helper()
	db := newTestDB(t)
	uc := NewProfileUsecase(db, newTestLogger(), repository.NewUserProfileRepository(), newTestAuditService(db), time.Second)
	return db, uc
}

func TestGetProfile_CreatesEmptyDefault(t *testing.T) {
	db, uc := newTestProfileUsecase(t)
	principal := principalFor(uuid.New())

	profile, err := uc.GetProfile(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, profile.UID)
	assert.Empty(t, profile.FirstName)
	assert.Empty(t, profile.Address)

	var count int64
	require.NoError(t, db.Model(&entity.UserProfile{}).Where("uid = ?", principal.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = uc.GetProfile(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetProfile_ConcurrentFirstReads(t *testing.T) {
	db, uc := newTestProfileUsecase(t)
	principal := principalFor(uuid.New())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.GetProfile(context.Background(), principal)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&entity.UserProfile{}).Where("uid = ?", principal.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

type blockingProfileRepo struct {
	domainrepo.UserProfileRepository
	saving  chan struct{}
	release chan struct{}
}

func (r *blockingProfileRepo) Save(ctx context.Context, db *gorm.DB, profile *entity.UserProfile) error {
	r.saving <- struct{}{}
	<-r.release
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.UserProfileRepository.Save(ctx, db, profile)
}

func TestGetProfile_LazyCreateSurvivesFirstCallerCancel(t *testing.T) {
	db := newTestDB(t)
	repo := &blockingProfileRepo{
		UserProfileRepository: repository.NewUserProfileRepository(),
		saving:                make(chan struct{}, 1),
		release:               make(chan struct{}),
	}
	uc := NewProfileUsecase(db, newTestLogger(), repo, newTestAuditService(db), time.Second)
	principal := principalFor(uuid.New())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := uc.GetProfile(firstCtx, principal)
		firstDone <- err
	}()
	<-repo.saving

	secondDone := make(chan error, 1)
	go func() {
		profile, err := uc.GetProfile(context.Background(), principal)
		if err == nil {
			assert.Equal(t, principal.ID, profile.UID)
		}
		secondDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	close(repo.release)

	require.NoError(t, <-secondDone)
	require.NoError(t, <-firstDone)

	var count int64
	require.NoError(t, db.Model(&entity.UserProfile{}).Where("uid = ?", principal.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateProfile_FullReplace(t *testing.T) {
	_, uc := newTestProfileUsecase(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	_, err := uc.UpdateProfile(ctx, principal, &dto.UpdateProfileRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Contact:   "0917 000 0000",
		Address:   "Quezon City",
	})
	require.NoError(t, err)

	updated, err := uc.UpdateProfile(ctx, principal, &dto.UpdateProfileRequest{FirstName: "Janet"})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)

	got, err := uc.GetProfile(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.FirstName)
	assert.Empty(t, got.LastName, "omitted fields are cleared")
	assert.Empty(t, got.Address)
}

func TestDeleteProfile(t *testing.T) {
	db, uc := newTestProfileUsecase(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	_, err := uc.UpdateProfile(ctx, principal, &dto.UpdateProfileRequest{FirstName: "Jane", Gender: "female"})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteProfile(ctx, principal, false), ErrConfirmationRequired)
	got, err := uc.GetProfile(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)

	require.NoError(t, uc.DeleteProfile(ctx, principal, true))
	require.NoError(t, uc.DeleteProfile(ctx, principal, true), "deleting an absent profile is a no-op")

	got, err = uc.GetProfile(ctx, principal)
	require.NoError(t, err)
	assert.Empty(t, got.FirstName)
	assert.Empty(t, got.Gender)

	var deletes int64
	require.NoError(t, db.Model(&entity.AuditLog{}).Where("action = ?", entity.AuditActionProfileDelete).Count(&deletes).Error)
	assert.Equal(t, int64(1), deletes)
}
