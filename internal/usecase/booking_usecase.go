package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"medconsult-api/internal/converter"
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/domain/repository"
	"medconsult-api/internal/gateway/payment"
	"medconsult-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const bookingEntityName = "appointments"

// PaymentLocker admits one in-flight payment request per booking.
type PaymentLocker interface {
	Acquire(ctx context.Context, bookingID uuid.UUID) (func(), error)
}

type BookingConfig struct {
	StoreTimeout       time.Duration
	PaymentTimeout     time.Duration
	Currency           string
	ReconcileBatchSize int
}

type BookingUsecase interface {
	CreateBooking(ctx context.Context, principal *entity.Principal, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	ListBookings(ctx context.Context, principal *entity.Principal) (*dto.BookingListResponse, error)
	GetBooking(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.BookingResponse, error)
	RequestPayment(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.PaymentRedirectResponse, error)
	CancelBooking(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.BookingResponse, error)
	ConfirmPayment(ctx context.Context, req *dto.ConfirmPaymentRequest) (*dto.BookingResponse, error)
	OperatorCancel(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error)
	ReconcilePayments(ctx context.Context) (*dto.ReconcileResponse, error)
}

type bookingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	bookingRepo  repository.BookingRepository
	gateway      payment.Gateway
	locker       PaymentLocker
	auditService service.AuditService
	metrics      *service.Metrics
	cfg          BookingConfig
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	gateway payment.Gateway,
	locker PaymentLocker,
	auditService service.AuditService,
	metrics *service.Metrics,
	cfg BookingConfig,
) BookingUsecase {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = entity.Currency
	}
	if cfg.ReconcileBatchSize <= 0 {
		cfg.ReconcileBatchSize = 50
	}
	return &bookingUsecase{
		db:           db,
		log:          log,
		bookingRepo:  bookingRepo,
		gateway:      gateway,
		locker:       locker,
		auditService: auditService,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// CreateBooking persists a pending booking priced from the catalog.
func (u *bookingUsecase) CreateBooking(ctx context.Context, principal *entity.Principal, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	serviceType, ok := entity.ParseServiceType(req.Type)
	if !ok {
		return nil, ErrInvalidServiceType
	}
	info, _ := serviceType.Info()

	booking := &entity.Booking{
		OwnerID:     principal.ID,
		ServiceType: serviceType,
		Price:       info.Price,
		Status:      entity.BookingStatusPending,
		Notes:       strings.TrimSpace(req.Notes),
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.log.Warnf("Failed to begin transaction: %+v", tx.Error)
		return nil, storeFailure(tx.Error)
	}
	defer tx.Rollback()

	if err := u.bookingRepo.Create(ctx, tx, booking); err != nil {
		u.log.Warnf("Failed to create booking: %+v", err)
		return nil, storeFailure(err)
	}

	response := converter.BookingToResponse(booking)
	if err := u.auditService.LogCreate(ctx, tx, &principal.ID, entity.AuditActionBookingCreate, bookingEntityName, booking.ID.String(), response); err != nil {
		return nil, storeFailure(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, storeFailure(err)
	}

	u.metrics.ObserveBookingCreated(string(serviceType))
	return response, nil
}

// ListBookings returns the caller's bookings, newest first.
func (u *bookingUsecase) ListBookings(ctx context.Context, principal *entity.Principal) (*dto.BookingListResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	bookings, err := u.bookingRepo.FindByOwner(ctx, u.db, principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find bookings by owner: %+v", err)
		return nil, storeFailure(err)
	}

	slices.SortStableFunc(bookings, func(a, b entity.Booking) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

func (u *bookingUsecase) GetBooking(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.BookingResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	booking, err := u.findOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

// RequestPayment returns a checkout link for a pending booking. It never
// changes the booking status. A booking that already has a link gets it back
// without another gateway call, and a concurrent request for the same booking
// fails with ErrPaymentInProgress.
func (u *bookingUsecase) RequestPayment(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.PaymentRedirectResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	booking, err := u.findPayable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if booking.HasCheckout() {
		u.metrics.ObservePaymentRequest(u.gateway.Name(), "reused")
		return converter.BookingToPaymentRedirect(booking), nil
	}

	release, err := u.locker.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrLockHeld) {
			u.metrics.ObservePaymentRequest(u.gateway.Name(), "in_progress")
			return nil, ErrPaymentInProgress
		}
		u.log.Warnf("Failed to acquire payment lock: %+v", err)
		return nil, storeFailure(err)
	}
	defer release()

	// Another request may have finished between the first read and the lock.
	booking, err = u.findPayable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if booking.HasCheckout() {
		u.metrics.ObservePaymentRequest(u.gateway.Name(), "reused")
		return converter.BookingToPaymentRedirect(booking), nil
	}

	checkout, err := u.createCheckout(ctx, booking)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	attached, err := u.bookingRepo.AttachCheckout(storeCtx, u.db, booking.ID, checkout.Reference, checkout.URL)
	if err != nil {
		u.log.Warnf("Failed to attach checkout to booking %s: %+v", booking.ID, err)
		return nil, storeFailure(err)
	}
	if !attached {
		return nil, ErrInvalidState
	}
	booking.CheckoutReference = checkout.Reference
	booking.CheckoutURL = checkout.URL

	// The link exists at the provider now; an audit failure is logged by the service only.
	_ = u.auditService.LogUpdate(storeCtx, u.db, &principal.ID, entity.AuditActionBookingPaymentRequested, bookingEntityName, booking.ID.String(),
		nil, map[string]string{"provider": u.gateway.Name(), "reference": checkout.Reference})

	u.metrics.ObservePaymentRequest(u.gateway.Name(), "created")
	return converter.BookingToPaymentRedirect(booking), nil
}

func (u *bookingUsecase) CancelBooking(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*dto.BookingResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	booking, err := u.findOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if err := u.transition(ctx, booking, entity.BookingStatusCancelled, "owner"); err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

// ConfirmPayment marks a pending booking completed once the provider has
// confirmed payment. Confirming an already completed booking is a no-op.
func (u *bookingUsecase) ConfirmPayment(ctx context.Context, req *dto.ConfirmPaymentRequest) (*dto.BookingResponse, error) {
	id, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking_id must be a UUID", ErrInvalidInput)
	}

	booking, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CheckoutReference == "" || booking.CheckoutReference != req.Reference {
		return nil, fmt.Errorf("%w: reference does not match booking", ErrInvalidInput)
	}

	if err := u.complete(ctx, booking, "confirm"); err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

func (u *bookingUsecase) OperatorCancel(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error) {
	booking, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := u.transition(ctx, booking, entity.BookingStatusCancelled, "operator"); err != nil {
		return nil, err
	}
	return converter.BookingToResponse(booking), nil
}

func (u *bookingUsecase) createCheckout(ctx context.Context, booking *entity.Booking) (*payment.Checkout, error) {
	gatewayCtx, cancel := context.WithTimeout(ctx, u.cfg.PaymentTimeout)
	defer cancel()

	start := time.Now()
	checkout, err := u.gateway.CreateCheckout(gatewayCtx, payment.CheckoutRequest{
		Amount:      booking.Price,
		Currency:    u.cfg.Currency,
		Description: fmt.Sprintf("%s Consultation", booking.ServiceType),
		Reference:   booking.ID.String(),
		Metadata: map[string]string{
			"booking_id": booking.ID.String(),
			"uid":        booking.OwnerID.String(),
		},
	})
	u.metrics.ObserveGatewayLatency(u.gateway.Name(), "create_checkout", time.Since(start).Seconds())

	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, ErrGatewayRejected) {
			outcome = "rejected"
		} else if !errors.Is(err, ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		u.metrics.ObservePaymentRequest(u.gateway.Name(), outcome)
		u.log.Warnf("Failed to create checkout for booking %s: %+v", booking.ID, err)
		return nil, err
	}
	return checkout, nil
}

// complete moves booking to completed, treating an already completed booking as success.
func (u *bookingUsecase) complete(ctx context.Context, booking *entity.Booking, source string) error {
	if booking.IsCompleted() {
		return nil
	}

	err := u.transition(ctx, booking, entity.BookingStatusCompleted, source)
	if errors.Is(err, ErrInvalidState) {
		current, findErr := u.find(ctx, booking.ID)
		if findErr == nil && current.IsCompleted() {
			*booking = *current
			return nil
		}
	}
	return err
}

// transition applies a status change with a compare-and-set on the current
// status, so a concurrent writer can never be overwritten.
func (u *bookingUsecase) transition(ctx context.Context, booking *entity.Booking, to entity.BookingStatus, source string) error {
	from := booking.Status
	next := *booking
	if err := next.TransitionTo(to); err != nil {
		if errors.Is(err, entity.ErrInvalidTransition) {
			return ErrInvalidState
		}
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	swapped, err := u.bookingRepo.CompareAndSetStatus(ctx, u.db, booking.ID, from, to)
	if err != nil {
		u.log.Warnf("Failed to update booking %s status: %+v", booking.ID, err)
		return storeFailure(err)
	}
	if !swapped {
		return ErrInvalidState
	}
	booking.Status = next.Status

	action := entity.AuditActionBookingCancel
	if to == entity.BookingStatusCompleted {
		action = entity.AuditActionBookingComplete
	}
	_ = u.auditService.LogUpdate(ctx, u.db, &booking.OwnerID, action, bookingEntityName, booking.ID.String(),
		map[string]string{"status": string(from)},
		map[string]string{"status": string(to), "source": source})

	u.metrics.ObserveTransition(string(to), source)
	return nil
}

func (u *bookingUsecase) find(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	booking, err := u.bookingRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find booking: %+v", err)
		return nil, storeFailure(err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// findOwned hides bookings of other principals behind ErrBookingNotFound.
func (u *bookingUsecase) findOwned(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.Booking, error) {
	booking, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(principal.ID) {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (u *bookingUsecase) findPayable(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.Booking, error) {
	booking, err := u.findOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsPending() {
		return nil, ErrInvalidState
	}
	return booking, nil
}
