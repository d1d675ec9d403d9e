package usecase

import (
	"context"
	"time"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/gateway/payment"

	"github.com/google/uuid"
)

// ReconcilePayments asks the provider about a batch of pending bookings with
// a checkout link and completes the ones that were paid. Each batch is stamped
// before it is checked so the next pass moves on to the rest of the backlog.
func (u *bookingUsecase) ReconcilePayments(ctx context.Context) (*dto.ReconcileResponse, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	bookings, err := u.bookingRepo.FindAwaitingPayment(storeCtx, u.db, u.cfg.ReconcileBatchSize)
	if err != nil {
		u.log.Warnf("Failed to find bookings awaiting payment: %+v", err)
		return nil, storeFailure(err)
	}

	ids := make([]uuid.UUID, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	if err := u.bookingRepo.MarkReconciled(storeCtx, u.db, ids, time.Now()); err != nil {
		u.log.Warnf("Failed to mark bookings as reconciled: %+v", err)
		return nil, storeFailure(err)
	}

	result := &dto.ReconcileResponse{Checked: len(bookings)}
	for i := range bookings {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		booking := &bookings[i]
		state, err := u.checkoutStatus(ctx, booking.CheckoutReference)
		if err != nil {
			result.Failed++
			u.metrics.ObserveReconcile("error")
			u.log.Warnf("Failed to get checkout status for booking %s: %+v", booking.ID, err)
			continue
		}
		if state != payment.CheckoutPaid {
			u.metrics.ObserveReconcile("unpaid")
			continue
		}

		if err := u.complete(ctx, booking, "reconciler"); err != nil {
			result.Failed++
			u.metrics.ObserveReconcile("error")
			u.log.Warnf("Failed to complete paid booking %s: %+v", booking.ID, err)
			continue
		}
		result.Completed++
		u.metrics.ObserveReconcile("paid")
	}

	return result, nil
}

func (u *bookingUsecase) checkoutStatus(ctx context.Context, reference string) (payment.CheckoutState, error) {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.PaymentTimeout)
	defer cancel()

	start := time.Now()
	state, err := u.gateway.CheckoutStatus(ctx, reference)
	u.metrics.ObserveGatewayLatency(u.gateway.Name(), "checkout_status", time.Since(start).Seconds())
	return state, err
}
