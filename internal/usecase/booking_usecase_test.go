package usecase

import (
	"context"
	"errors"
	"testing"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/gateway/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCreateBooking_PriceFromCatalog(t *testing.T) {
	f := newBookingFixture(t)
	principal := principalFor(uuid.New())

	res, err := f.usecase.CreateBooking(context.Background(), principal, &dto.CreateBookingRequest{Type: "pediatrics", Notes: "  fever  "})
	require.NoError(t, err)

	assert.Equal(t, string(entity.ServicePediatrics), res.Type)
	assert.Equal(t, int64(85000), res.Price)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, string(entity.BookingStatusPending), res.Status)
	assert.Equal(t, principal.ID, res.UID)
	assert.Equal(t, "fever", res.Notes)

	var logs []entity.AuditLog
	require.NoError(t, f.db.Where("action = ?", entity.AuditActionBookingCreate).Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.usecase.CreateBooking(ctx, nil, &dto.CreateBookingRequest{Type: "Pediatrics"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.usecase.CreateBooking(ctx, principalFor(uuid.New()), &dto.CreateBookingRequest{Type: "Cardiology"})
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	var count int64
	require.NoError(t, f.db.Model(&entity.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListBookings_OnlyOwn(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	alice, bob := principalFor(uuid.New()), principalFor(uuid.New())

	for _, st := range []string{"Dermatology", "Neurology"} {
		_, err := f.usecase.CreateBooking(ctx, alice, &dto.CreateBookingRequest{Type: st})
		require.NoError(t, err)
	}
	_, err := f.usecase.CreateBooking(ctx, bob, &dto.CreateBookingRequest{Type: "Urology"})
	require.NoError(t, err)

	list, err := f.usecase.ListBookings(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	for _, b := range list.Bookings {
		assert.Equal(t, alice.ID, b.UID)
	}

	empty, err := f.usecase.ListBookings(ctx, principalFor(uuid.New()))
	require.NoError(t, err)
	assert.NotNil(t, empty.Bookings)
	assert.Zero(t, empty.Total)
}

func TestGetBooking_OtherOwnerIsNotFound(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	owner := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, owner, &dto.CreateBookingRequest{Type: "Urology"})
	require.NoError(t, err)

	got, err := f.usecase.GetBooking(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.usecase.GetBooking(ctx, principalFor(uuid.New()), created.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.usecase.GetBooking(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRequestPayment_PediatricsCheckout(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Pediatrics"})
	require.NoError(t, err)

	redirect, err := f.usecase.RequestPayment(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, redirect.CheckoutURL)
	assert.True(t, redirect.Amount.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, entity.Currency, redirect.Currency)

	require.Len(t, f.gateway.creates, 1)
	req := f.gateway.creates[0]
	assert.Equal(t, int64(85000), req.Amount)
	assert.Equal(t, "Pediatrics Consultation", req.Description)
	assert.Equal(t, created.ID.String(), req.Metadata["booking_id"])

	// A booking stays pending until the provider confirms payment.
	got, err := f.usecase.GetBooking(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusPending), got.Status)
	assert.Equal(t, redirect.CheckoutURL, got.CheckoutURL)

	again, err := f.usecase.RequestPayment(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.Equal(t, redirect.CheckoutURL, again.CheckoutURL)
	assert.Equal(t, 1, f.gateway.createCalls(), "existing link must be reused")
}

func TestRequestPayment_NonPendingNeverCallsGateway(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Neurology"})
	require.NoError(t, err)
	_, err = f.usecase.CancelBooking(ctx, principal, created.ID)
	require.NoError(t, err)

	_, err = f.usecase.RequestPayment(ctx, principal, created.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, f.gateway.createCalls())
}

func TestRequestPayment_GatewayFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", payment.ErrGatewayUnavailable, ErrGatewayUnavailable},
		{"rejected", payment.ErrGatewayRejected, ErrGatewayRejected},
		{"unclassified", errors.New("boom"), ErrGatewayUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			f.gateway.createErr = tt.err
			ctx := context.Background()
			principal := principalFor(uuid.New())

			created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Dermatology"})
			require.NoError(t, err)

			_, err = f.usecase.RequestPayment(ctx, principal, created.ID)
			assert.ErrorIs(t, err, tt.want)

			got, err := f.usecase.GetBooking(ctx, principal, created.ID)
			require.NoError(t, err)
			assert.Equal(t, string(entity.BookingStatusPending), got.Status)
			assert.Empty(t, got.CheckoutURL)
		})
	}
}

func TestRequestPayment_ConcurrentRequestsCallGatewayOnce(t *testing.T) {
	f := newBookingFixture(t)
	f.gateway.started = make(chan struct{}, 1)
	f.gateway.release = make(chan struct{})
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Ophthalmology"})
	require.NoError(t, err)

	type result struct {
		res *dto.PaymentRedirectResponse
		err error
	}
	first := make(chan result, 1)
	go func() {
		res, err := f.usecase.RequestPayment(ctx, principal, created.ID)
		first <- result{res, err}
	}()

	<-f.gateway.started
	_, err = f.usecase.RequestPayment(ctx, principal, created.ID)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.ErrorIs(t, err, ErrInvalidState)

	close(f.gateway.release)
	r := <-first
	require.NoError(t, r.err)
	assert.NotEmpty(t, r.res.CheckoutURL)
	assert.Equal(t, 1, f.gateway.createCalls())
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Urology"})
	require.NoError(t, err)

	_, err = f.usecase.CancelBooking(ctx, principalFor(uuid.New()), created.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	cancelled, err := f.usecase.CancelBooking(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCancelled), cancelled.Status)

	_, err = f.usecase.CancelBooking(ctx, principal, created.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmPayment(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Pediatrics"})
	require.NoError(t, err)
	redirect, err := f.usecase.RequestPayment(ctx, principal, created.ID)
	require.NoError(t, err)

	_, err = f.usecase.ConfirmPayment(ctx, &dto.ConfirmPaymentRequest{BookingID: created.ID.String(), Reference: "cs_wrong"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.usecase.ConfirmPayment(ctx, &dto.ConfirmPaymentRequest{BookingID: "not-a-uuid", Reference: redirect.Reference})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.usecase.ConfirmPayment(ctx, &dto.ConfirmPaymentRequest{BookingID: uuid.NewString(), Reference: redirect.Reference})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	req := &dto.ConfirmPaymentRequest{BookingID: created.ID.String(), Reference: redirect.Reference}
	confirmed, err := f.usecase.ConfirmPayment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), confirmed.Status)

	again, err := f.usecase.ConfirmPayment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), again.Status)

	_, err = f.usecase.CancelBooking(ctx, principal, created.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.usecase.OperatorCancel(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	var logs []entity.AuditLog
	require.NoError(t, f.db.Where("action = ?", entity.AuditActionBookingComplete).Find(&logs).Error)
	assert.Len(t, logs, 1, "idempotent confirm must not audit twice")
}

func TestConfirmPayment_CancelledBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	created, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Neurology"})
	require.NoError(t, err)
	redirect, err := f.usecase.RequestPayment(ctx, principal, created.ID)
	require.NoError(t, err)

	cancelled, err := f.usecase.OperatorCancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCancelled), cancelled.Status)

	_, err = f.usecase.ConfirmPayment(ctx, &dto.ConfirmPaymentRequest{BookingID: created.ID.String(), Reference: redirect.Reference})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReconcilePayments_CompletesPaidOnly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	paid, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Pediatrics"})
	require.NoError(t, err)
	unpaid, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Dermatology"})
	require.NoError(t, err)
	_, err = f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Urology"})
	require.NoError(t, err)

	paidRedirect, err := f.usecase.RequestPayment(ctx, principal, paid.ID)
	require.NoError(t, err)
	_, err = f.usecase.RequestPayment(ctx, principal, unpaid.ID)
	require.NoError(t, err)
	f.gateway.markPaid(paidRedirect.Reference)

	result, err := f.usecase.ReconcilePayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked, "bookings without a checkout link are skipped")
	assert.Equal(t, 1, result.Completed)
	assert.Zero(t, result.Failed)

	got, err := f.usecase.GetBooking(ctx, principal, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), got.Status)

	got, err = f.usecase.GetBooking(ctx, principal, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusPending), got.Status)

	second, err := f.usecase.ReconcilePayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Checked)
	assert.Zero(t, second.Completed)
}

func TestReconcilePayments_BacklogDoesNotStarveNewerPaid(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	principal := principalFor(uuid.New())

	// One more abandoned link than fits in a batch.
	for i := 0; i < 11; i++ {
		abandoned, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Dermatology"})
		require.NoError(t, err)
		_, err = f.usecase.RequestPayment(ctx, principal, abandoned.ID)
		require.NoError(t, err)
	}

	paid, err := f.usecase.CreateBooking(ctx, principal, &dto.CreateBookingRequest{Type: "Urology"})
	require.NoError(t, err)
	redirect, err := f.usecase.RequestPayment(ctx, principal, paid.ID)
	require.NoError(t, err)
	f.gateway.markPaid(redirect.Reference)

	completed := 0
	for pass := 0; pass < 2; pass++ {
		result, err := f.usecase.ReconcilePayments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, result.Checked)
		completed += result.Completed
	}
	assert.Equal(t, 1, completed)

	got, err := f.usecase.GetBooking(ctx, principal, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), got.Status)

	var unchecked int64
	require.NoError(t, f.db.Model(&entity.Booking{}).Where("reconciled_at IS NULL").Count(&unchecked).Error)
	assert.Zero(t, unchecked, "every link is visited within two passes")
}

func TestListBookings_StoreUnavailable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM "appointments"`).WillReturnError(errors.New("connection refused"))

	f := newBookingFixture(t)
	uc := f.usecase.(*bookingUsecase)
	uc.db = db

	_, err = uc.ListBookings(context.Background(), principalFor(uuid.New()))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
