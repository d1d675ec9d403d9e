package http

import (
	"net/http"

	"medconsult-api/internal/delivery/http/handler"
	"medconsult-api/internal/delivery/http/middleware"
	"medconsult-api/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router                 *mux.Router
	authHandler            *handler.AuthHandler
	bookingHandler         *handler.BookingHandler
	profileHandler         *handler.ProfileHandler
	catalogHandler         *handler.CatalogHandler
	paymentHandler         *handler.PaymentHandler
	auditLogHandler        *handler.AuditLogHandler
	authMiddleware         *middleware.AuthMiddleware
	internalAuthMiddleware *middleware.InternalAuthMiddleware
	corsMiddleware         *middleware.CORSMiddleware
	loggingMiddleware      *middleware.LoggingMiddleware
	metricsHandler         http.Handler
}

func NewRouter(
	authHandler *handler.AuthHandler,
	bookingHandler *handler.BookingHandler,
	profileHandler *handler.ProfileHandler,
	catalogHandler *handler.CatalogHandler,
	paymentHandler *handler.PaymentHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	internalAuthMiddleware *middleware.InternalAuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:                 mux.NewRouter(),
		authHandler:            authHandler,
		bookingHandler:         bookingHandler,
		profileHandler:         profileHandler,
		catalogHandler:         catalogHandler,
		paymentHandler:         paymentHandler,
		auditLogHandler:        auditLogHandler,
		authMiddleware:         authMiddleware,
		internalAuthMiddleware: internalAuthMiddleware,
		corsMiddleware:         corsMiddleware,
		loggingMiddleware:      loggingMiddleware,
		metricsHandler:         metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	if r.metricsHandler != nil {
		api.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.authHandler.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/signin", r.authHandler.SignIn).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/password-reset", r.authHandler.RequestPasswordReset).Methods(http.MethodPost)
	auth.HandleFunc("/password-reset/confirm", r.authHandler.ConfirmPasswordReset).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/signout", r.authHandler.SignOut).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.Me).Methods(http.MethodGet)

	// Catalog (public)
	api.HandleFunc("/services", r.catalogHandler.ListServices).Methods(http.MethodGet)
	api.HandleFunc("/services/{type}", r.catalogHandler.GetService).Methods(http.MethodGet)

	// Bookings
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	bookings.HandleFunc("", r.bookingHandler.ListBookings).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}/payment", r.bookingHandler.RequestPayment).Methods(http.MethodPost)
	bookings.HandleFunc("/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)

	// Profile
	profile := api.PathPrefix("/profile").Subrouter()
	profile.Use(r.authMiddleware.Authenticate)
	profile.HandleFunc("", r.profileHandler.GetProfile).Methods(http.MethodGet)
	profile.HandleFunc("", r.profileHandler.UpdateProfile).Methods(http.MethodPut)
	profile.HandleFunc("", r.profileHandler.DeleteProfile).Methods(http.MethodDelete)

	// Internal routes (HMAC signed)
	internal := api.PathPrefix("/internal").Subrouter()
	internal.Use(r.internalAuthMiddleware.Verify)
	internal.HandleFunc("/payments/confirm", r.paymentHandler.ConfirmPayment).Methods(http.MethodPost)
	internal.HandleFunc("/payments/reconcile", r.paymentHandler.ReconcilePayments).Methods(http.MethodPost)
	internal.HandleFunc("/bookings/{id}/cancel", r.paymentHandler.CancelBooking).Methods(http.MethodPost)
	internal.HandleFunc("/audit-logs", r.auditLogHandler.GetRecentAuditLogs).Methods(http.MethodGet)
	internal.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
