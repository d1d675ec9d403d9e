package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid booking status transition")

// completed and cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Booking represents one requested consultation (collection "appointments").
type Booking struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID           uuid.UUID     `gorm:"column:uid;type:uuid;not null;index" json:"uid"`
	ServiceType       ServiceType   `gorm:"column:type;type:varchar(50);not null" json:"type"`
	Price             int64         `gorm:"not null" json:"price"`
	Status            BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes             string        `gorm:"type:text" json:"notes,omitempty"`
	CheckoutReference string        `gorm:"type:varchar(255);index" json:"checkout_reference,omitempty"`
	CheckoutURL       string        `gorm:"column:checkout_url;type:text" json:"checkout_url,omitempty"`
	ReconciledAt      *time.Time    `gorm:"index" json:"reconciled_at,omitempty"`
	CreatedAt         time.Time     `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "appointments"
}

// BeforeCreate lets the store assign the identifier.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// IsPending checks if booking is in pending status
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsCompleted checks if booking is completed
func (b *Booking) IsCompleted() bool {
	return b.Status == BookingStatusCompleted
}

// IsOwnedBy reports whether the booking belongs to ownerID.
func (b *Booking) IsOwnedBy(ownerID uuid.UUID) bool {
	return b.OwnerID == ownerID
}

// HasCheckout reports whether a checkout link was already issued.
func (b *Booking) HasCheckout() bool {
	return b.CheckoutURL != ""
}

// Amount returns the price in whole currency units.
func (b *Booking) Amount() decimal.Decimal {
	return MinorToAmount(b.Price)
}

// TransitionTo moves the booking to target if the state machine allows it.
func (b *Booking) TransitionTo(target BookingStatus) error {
	if !b.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}
	b.Status = target
	return nil
}
