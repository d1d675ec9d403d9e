package converter

import (
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	return &dto.BookingResponse{
		ID:          booking.ID,
		UID:         booking.OwnerID,
		Type:        string(booking.ServiceType),
		Price:       booking.Price,
		Amount:      booking.Amount(),
		Currency:    entity.Currency,
		Status:      string(booking.Status),
		Notes:       booking.Notes,
		CheckoutURL: booking.CheckoutURL,
		Timestamp:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}

func BookingToPaymentRedirect(booking *entity.Booking) *dto.PaymentRedirectResponse {
	return &dto.PaymentRedirectResponse{
		BookingID:   booking.ID,
		CheckoutURL: booking.CheckoutURL,
		Reference:   booking.CheckoutReference,
		Amount:      booking.Amount(),
		Currency:    entity.Currency,
	}
}
