package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"medconsult-api/config"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_StartAndValidate(t *testing.T) {
	mr, svc := newTestSessionService(t)
	account, session := startSession(t, svc)

	assert.Equal(t, account.ID, session.Principal.ID)
	assert.Equal(t, int64(900), session.ExpiresIn)
	assert.Len(t, mr.Keys(), 2)

	principal, err := svc.Validate(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.ID)
	assert.Equal(t, account.Email, principal.Email)
	assert.Equal(t, session.Principal.TokenID, principal.TokenID)

	_, err = svc.Validate(context.Background(), session.RefreshToken)
	assert.True(t, errors.Is(err, ErrInvalidToken), "refresh token is not an access token")

	_, err = svc.Validate(context.Background(), "garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestSessionService_EndRevokesPair(t *testing.T) {
	mr, svc := newTestSessionService(t)
	_, session := startSession(t, svc)

	var events []SessionEvent
	unsubscribe := svc.Subscribe(func(e SessionEvent) { events = append(events, e) })
	defer unsubscribe()

	require.NoError(t, svc.End(context.Background(), &session.Principal))
	assert.Empty(t, mr.Keys())

	_, err := svc.Validate(context.Background(), session.AccessToken)
	assert.True(t, errors.Is(err, ErrTokenRevoked))

	_, err = svc.Rotate(context.Background(), session.RefreshToken)
	assert.True(t, errors.Is(err, ErrTokenRevoked))

	require.Len(t, events, 1)
	assert.Equal(t, SessionSignedOut, events[0].Type)
}

func TestSessionService_RotateIsSingleUse(t *testing.T) {
	_, svc := newTestSessionService(t)
	account, session := startSession(t, svc)

	rotated, err := svc.Rotate(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, rotated.Principal.ID)
	assert.NotEqual(t, session.AccessToken, rotated.AccessToken)

	_, err = svc.Validate(context.Background(), session.AccessToken)
	assert.True(t, errors.Is(err, ErrTokenRevoked), "old access token revoked on rotation")

	_, err = svc.Rotate(context.Background(), session.RefreshToken)
	assert.True(t, errors.Is(err, ErrTokenRevoked), "refresh token cannot be reused")

	_, err = svc.Validate(context.Background(), rotated.AccessToken)
	assert.NoError(t, err)
}

func TestSessionService_EndAll(t *testing.T) {
	mr, svc := newTestSessionService(t)
	account, first := startSession(t, svc)
	second, err := svc.Start(context.Background(), account)
	require.NoError(t, err)

	_, other := startSession(t, svc)

	require.NoError(t, svc.EndAll(context.Background(), account.ID))

	_, err = svc.Validate(context.Background(), first.AccessToken)
	assert.Error(t, err)
	_, err = svc.Validate(context.Background(), second.AccessToken)
	assert.Error(t, err)
	_, err = svc.Validate(context.Background(), other.AccessToken)
	assert.NoError(t, err, "other account untouched")
	assert.Len(t, mr.Keys(), 2)
}

func TestSessionService_ResetToken(t *testing.T) {
	mr, svc := newTestSessionService(t)
	userID := uuid.New()

	token, err := svc.IssueResetToken(context.Background(), userID, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL("password_reset:"+token))

	got, err := svc.ConsumeResetToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = svc.ConsumeResetToken(context.Background(), token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expiring, err := svc.IssueResetToken(context.Background(), userID, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = svc.ConsumeResetToken(context.Background(), expiring)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestSessionService_Subscribe(t *testing.T) {
	_, svc := newTestSessionService(t)

	var mu sync.Mutex
	var got []SessionEventType
	unsubscribe := svc.Subscribe(func(e SessionEvent) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})

	_, session := startSession(t, svc)
	require.NoError(t, svc.End(context.Background(), &session.Principal))

	unsubscribe()
	startSession(t, svc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []SessionEventType{SessionSignedIn, SessionSignedOut}, got)
}

func TestSessionService_RejectsTokenFromAnotherIssuer(t *testing.T) {
	mr, svc := newTestSessionService(t)
	_, session := startSession(t, svc)

	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, accessTokenKeyPrefix) {
			assert.Equal(t, 15*time.Minute, mr.TTL(key))
		}
	}

	other := NewSessionService(svc.redisClient, jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "billing-service",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	}), newTestLogger())
	foreign, err := other.Start(context.Background(), &entity.Account{ID: session.Principal.ID, Email: session.Principal.Email})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), foreign.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Rotate(context.Background(), foreign.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
