package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"medconsult-api/config"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/gateway/payment"
	"medconsult-api/internal/repository"
	"medconsult-api/internal/service"
	"medconsult-api/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.Account{}, &entity.Booking{}, &entity.UserProfile{}, &entity.AuditLog{}))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestAuditService(db *gorm.DB) service.AuditService {
	return service.NewAuditService(db, newTestLogger(), repository.NewAuditLogRepository())
}

func principalFor(id uuid.UUID) *entity.Principal {
	return &entity.Principal{ID: id, Email: "jane@example.com", TokenID: uuid.NewString()}
}

// fakeGateway records calls and can hold CreateCheckout open until released.
type fakeGateway struct {
	mu        sync.Mutex
	creates   []payment.CheckoutRequest
	statuses  int
	createErr error
	paid      map[string]bool

	started chan struct{}
	release chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{paid: make(map[string]bool)}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.mu.Lock()
	g.creates = append(g.creates, req)
	started, release, err := g.started, g.release, g.createErr
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}

	reference := "cs_" + req.Reference
	return &payment.Checkout{URL: "https://pay.example.com/" + reference, Reference: reference}, nil
}

func (g *fakeGateway) CheckoutStatus(ctx context.Context, reference string) (payment.CheckoutState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses++
	if g.paid[reference] {
		return payment.CheckoutPaid, nil
	}
	return payment.CheckoutUnpaid, nil
}

func (g *fakeGateway) markPaid(reference string) {
	g.mu.Lock()
	g.paid[reference] = true
	g.mu.Unlock()
}

func (g *fakeGateway) createCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.creates)
}

type bookingFixture struct {
	db      *gorm.DB
	gateway *fakeGateway
	usecase BookingUsecase
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := newTestDB(t)
	_, client := newTestRedis(t)
	gateway := newFakeGateway()
	log := newTestLogger()

	uc := NewBookingUsecase(
		db,
		log,
		repository.NewBookingRepository(),
		gateway,
		service.NewPaymentLockService(client, log, time.Minute),
		newTestAuditService(db),
		nil,
		BookingConfig{StoreTimeout: time.Second, PaymentTimeout: 2 * time.Second, ReconcileBatchSize: 10},
	)
	return &bookingFixture{db: db, gateway: gateway, usecase: uc}
}

func newTestSessionService(t *testing.T) (*miniredis.Miniredis, *service.SessionService) {
	t.Helper()
	mr, client := newTestRedis(t)
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	return mr, service.NewSessionService(client, jwtService, newTestLogger())
}
