package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBookingCreated("Pediatrics")
	m.ObserveBookingCreated("Pediatrics")
	m.ObservePaymentRequest("paymongo", "created")
	m.ObserveTransition("completed", "reconciler")
	m.HandleSessionEvent(SessionEvent{Type: SessionSignedIn})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsCreated.WithLabelValues("Pediatrics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentRequests.WithLabelValues("paymongo", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingTransition.WithLabelValues("completed", "reconciler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionEvents.WithLabelValues("signed_in")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBookingCreated("Urology")
		m.ObserveGatewayLatency("stripe", "create", 0.1)
		m.ObserveReconcile("paid")
		m.HandleSessionEvent(SessionEvent{Type: SessionSignedOut})
	})
}
