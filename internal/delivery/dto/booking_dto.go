package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// CreateBookingRequest carries no price: it is always resolved from the catalog.
type CreateBookingRequest struct {
	Type  string `json:"type" validate:"required"`
	Notes string `json:"notes" validate:"max=500"`
}

type ConfirmPaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Reference string `json:"reference" validate:"required"`
}

// Response DTOs

type BookingResponse struct {
	ID          uuid.UUID       `json:"id"`
	UID         uuid.UUID       `json:"uid"`
	Type        string          `json:"type"`
	Price       int64           `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

type PaymentRedirectResponse struct {
	BookingID   uuid.UUID       `json:"booking_id"`
	CheckoutURL string          `json:"checkout_url"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type ReconcileResponse struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
