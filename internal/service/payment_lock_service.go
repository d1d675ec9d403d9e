package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockHeld is returned when another request already holds the booking's payment lock.
var ErrLockHeld = errors.New("payment lock already held")

const (
	paymentLockKeyPrefix = "booking:payment_lock:"
	lockReleaseTimeout   = 2 * time.Second
)

// releaseLockScript deletes the lock only if it still carries our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// PaymentLockService admits one in-flight payment request per booking.
type PaymentLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewPaymentLockService(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *PaymentLockService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PaymentLockService{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

// Acquire takes the lock for bookingID. The returned release func is safe to
// call more than once.
func (s *PaymentLockService) Acquire(ctx context.Context, bookingID uuid.UUID) (func(), error) {
	key := paymentLockKeyPrefix + bookingID.String()
	token := uuid.NewString()

	ok, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock for %s: %w", bookingID, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		releaseCtx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
			s.log.Warnf("Failed to release payment lock for %s: %+v", bookingID, err)
		}
	}, nil
}
