package handler

import (
	"errors"
	"net/http"

	"medconsult-api/internal/usecase"
	"medconsult-api/pkg/response"
)

// writeError maps usecase errors to HTTP statuses. fallback is the message
// for unexpected errors, whose detail is never sent to the client.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "Authentication required")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenRevoked):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrInvalidServiceType),
		errors.Is(err, usecase.ErrConfirmationRequired):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrServiceNotFound),
		errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, usecase.ErrPaymentInProgress):
		response.Conflict(w, "Payment request already in progress")
	case errors.Is(err, usecase.ErrInvalidState):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		response.Conflict(w, "Email already exists")
	case errors.Is(err, usecase.ErrGatewayRejected):
		response.BadGateway(w, "Payment provider rejected the request")
	case errors.Is(err, usecase.ErrGatewayUnavailable):
		response.ServiceUnavailable(w, "Payment provider unavailable")
	case errors.Is(err, usecase.ErrStoreUnavailable):
		response.ServiceUnavailable(w, "Service temporarily unavailable")
	default:
		response.InternalServerError(w, fallback)
	}
}
