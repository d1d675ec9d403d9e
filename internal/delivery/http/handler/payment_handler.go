package handler

import (
	"net/http"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/usecase"
	"medconsult-api/pkg/response"
	"medconsult-api/pkg/validator"
)

// PaymentHandler serves the signed internal endpoints used by the payment
// confirmation relay and operators.
type PaymentHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewPaymentHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *PaymentHandler {
	return &PaymentHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// ConfirmPayment marks a booking completed. Repeating it is harmless.
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmPaymentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	booking, err := h.bookingUsecase.ConfirmPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to confirm payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment confirmed successfully", booking)
}

func (h *PaymentHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.OperatorCancel(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to cancel booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled successfully", booking)
}

// ReconcilePayments runs one reconciliation pass on demand.
func (h *PaymentHandler) ReconcilePayments(w http.ResponseWriter, r *http.Request) {
	result, err := h.bookingUsecase.ReconcilePayments(r.Context())
	if err != nil {
		writeError(w, err, "Failed to reconcile payments")
		return
	}

	response.Success(w, http.StatusOK, "Payments reconciled successfully", result)
}
