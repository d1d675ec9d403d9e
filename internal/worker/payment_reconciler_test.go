package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"medconsult-api/internal/delivery/dto"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) ReconcilePayments(ctx context.Context) (*dto.ReconcileResponse, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &dto.ReconcileResponse{Checked: 2, Completed: 1}, nil
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewPaymentReconciler_InvalidSchedule(t *testing.T) {
	_, err := NewPaymentReconciler(&countingReconciler{}, newTestLogger(), "not a schedule", time.Second)
	assert.Error(t, err)
}

func TestPaymentReconciler_RunOnce(t *testing.T) {
	r := &countingReconciler{}
	w, err := NewPaymentReconciler(r, newTestLogger(), "@every 1h", time.Second)
	require.NoError(t, err)

	w.RunOnce()
	assert.Equal(t, int32(1), r.calls.Load())

	r.err = errors.New("store down")
	w.RunOnce()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestPaymentReconciler_RunsOnSchedule(t *testing.T) {
	r := &countingReconciler{}
	w, err := NewPaymentReconciler(r, newTestLogger(), "@every 1s", time.Second)
	require.NoError(t, err)

	w.Start()
	w.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	require.NoError(t, w.Stop(ctx))
}
