// Package worker runs background jobs of the service.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"go.uber.org/zap"
)

// ReminderWorker runs a reminder sweep on a fixed interval
type ReminderWorker struct {
	reminders ports.ReminderService
	interval  time.Duration
	metrics   *ReminderMetrics
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

// NewReminderWorker creates a worker sweeping every interval
func NewReminderWorker(reminders ports.ReminderService, interval time.Duration, metrics *ReminderMetrics, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewReminderMetrics(nil)
	}
	return &ReminderWorker{
		reminders: reminders,
		interval:  interval,
		metrics:   metrics,
		logger:    logger.With(zap.String("worker", "reminders")),
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled
func (w *ReminderWorker) Run(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Info("Reminder worker is already running, skipping duplicate start")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.logger.Info("Reminder worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one sweep for today and records its metrics
func (w *ReminderWorker) SweepOnce(ctx context.Context) *ports.SweepResult {
	start := time.Now()
	ref := domain.Today(w.now())

	result, err := w.reminders.Sweep(ctx, ref)
	w.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.metrics.SweepsTotal.WithLabelValues("error").Inc()
		w.logger.Error("Reminder sweep failed", zap.String("date", ref.String()), zap.Error(err))
		return nil
	}

	w.metrics.SweepsTotal.WithLabelValues("ok").Inc()
	w.metrics.RemindersTotal.WithLabelValues("published").Add(float64(result.Published))
	w.metrics.RemindersTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	w.metrics.RemindersTotal.WithLabelValues("failed").Add(float64(result.Failed))

	w.logger.Info("Reminder sweep finished",
		zap.String("date", ref.String()),
		zap.Int("published", result.Published),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return result
}
