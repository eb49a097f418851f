package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReminderMetrics tracks reminder sweeps
type ReminderMetrics struct {
	SweepsTotal    *prometheus.CounterVec
	RemindersTotal *prometheus.CounterVec
	SweepDuration  prometheus.Histogram
}

// NewReminderMetrics creates the reminder metrics and registers them with reg
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		SweepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_sweeps_total",
				Help: "Total number of reminder sweeps",
			},
			[]string{"status"},
		),
		RemindersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_total",
				Help: "Total number of reminders handled by sweeps",
			},
			[]string{"outcome"}, // published, skipped, failed
		),
		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reminder_sweep_duration_seconds",
				Help:    "Duration of reminder sweeps",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.SweepsTotal, m.RemindersTotal, m.SweepDuration)
	}
	return m
}
