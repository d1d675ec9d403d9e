package usecase

import (
	"errors"
	"fmt"
	"strings"

	"medconsult-api/internal/gateway/payment"
	"medconsult-api/internal/service"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidServiceType   = errors.New("invalid service type")
	ErrServiceNotFound      = errors.New("service not found")
	ErrInvalidState         = errors.New("booking is not in a valid state for this action")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrConfirmationRequired = errors.New("explicit confirmation required")
	ErrStoreUnavailable     = errors.New("record store unavailable")
	ErrAuditLogNotFound     = errors.New("audit log not found")

	ErrPaymentInProgress = fmt.Errorf("%w: payment already in progress", ErrInvalidState)

	ErrInvalidToken       = service.ErrInvalidToken
	ErrTokenRevoked       = service.ErrTokenRevoked
	ErrGatewayUnavailable = payment.ErrGatewayUnavailable
	ErrGatewayRejected    = payment.ErrGatewayRejected
)

// storeFailure reports a record store error as StoreUnavailable, keeping the cause.
func storeFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func isDuplicateKeyError(err error, column string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, column)
	}
	return false
}
