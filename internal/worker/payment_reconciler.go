package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medconsult-api/internal/delivery/dto"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reconciler is the slice of the booking usecase the worker drives.
type Reconciler interface {
	ReconcilePayments(ctx context.Context) (*dto.ReconcileResponse, error)
}

// PaymentReconciler periodically completes bookings whose checkout was paid
// but never confirmed.
type PaymentReconciler struct {
	reconciler Reconciler
	log        *logrus.Logger
	timeout    time.Duration
	cron       *cron.Cron

	mu      sync.Mutex
	started bool
}

func NewPaymentReconciler(reconciler Reconciler, log *logrus.Logger, schedule string, timeout time.Duration) (*PaymentReconciler, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}

	cronLogger := cron.PrintfLogger(log)
	w := &PaymentReconciler{
		reconciler: reconciler,
		log:        log,
		timeout:    timeout,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}

	if _, err := w.cron.AddFunc(schedule, w.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return w, nil
}

// RunOnce performs a single reconciliation pass.
func (w *PaymentReconciler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	result, err := w.reconciler.ReconcilePayments(ctx)
	if err != nil {
		w.log.Warnf("Payment reconciliation failed: %+v", err)
		return
	}

	w.log.WithFields(logrus.Fields{
		"checked":   result.Checked,
		"completed": result.Completed,
		"failed":    result.Failed,
		"duration":  time.Since(start).String(),
	}).Info("Payment reconciliation finished")
}

func (w *PaymentReconciler) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.cron.Start()
	w.log.Info("Payment reconciler started")
}

// Stop halts scheduling and waits for a running pass, bounded by ctx.
func (w *PaymentReconciler) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	w.mu.Unlock()

	select {
	case <-w.cron.Stop().Done():
		w.log.Info("Payment reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
