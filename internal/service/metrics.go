package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the booking and payment flows.
type Metrics struct {
	bookingsCreated   *prometheus.CounterVec
	bookingTransition *prometheus.CounterVec
	paymentRequests   *prometheus.CounterVec
	gatewayLatency    *prometheus.HistogramVec
	sessionEvents     *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings created, by service type",
		}, []string{"service_type"}),
		bookingTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Booking status transitions, by target status and source",
		}, []string{"status", "source"}),
		paymentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "payments",
			Name:      "requests_total",
			Help:      "Payment link requests, by provider and outcome",
		}, []string{"provider", "outcome"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medconsult",
			Subsystem: "payments",
			Name:      "gateway_latency_seconds",
			Help:      "Latency of payment gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "auth",
			Name:      "session_events_total",
			Help:      "Sign-in and sign-out events",
		}, []string{"event"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "payments",
			Name:      "reconciled_total",
			Help:      "Bookings examined by the payment reconciler, by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsCreated, m.bookingTransition, m.paymentRequests, m.gatewayLatency, m.sessionEvents, m.reconcileRuns)
	return m
}

func (m *Metrics) ObserveBookingCreated(serviceType string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(serviceType).Inc()
}

func (m *Metrics) ObserveTransition(status, source string) {
	if m == nil {
		return
	}
	m.bookingTransition.WithLabelValues(status, source).Inc()
}

func (m *Metrics) ObservePaymentRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.paymentRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveGatewayLatency(provider, operation string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(provider, operation).Observe(seconds)
}

func (m *Metrics) ObserveReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(outcome).Inc()
}

// HandleSessionEvent is a SessionListener.
func (m *Metrics) HandleSessionEvent(event SessionEvent) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(string(event.Type)).Inc()
}
