package service

import (
	"context"
	"io"
	"testing"
	"time"

	"medconsult-api/config"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestSessionService(t *testing.T) (*miniredis.Miniredis, *SessionService) {
	t.Helper()
	mr, client := newTestRedis(t)
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	return mr, NewSessionService(client, jwtService, newTestLogger())
}

func startSession(t *testing.T, svc *SessionService) (*entity.Account, *Session) {
	t.Helper()
	account := &entity.Account{ID: uuid.New(), Email: "jane@example.com"}
	session, err := svc.Start(context.Background(), account)
	require.NoError(t, err)
	return account, session
}
