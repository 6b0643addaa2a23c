package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Hydration outcomes recorded by the hydrate counter.
const (
	HydrateEmpty    = "empty"
	HydrateRestored = "restored"
	HydrateMigrated = "migrated"
	HydrateFallback = "fallback"
)

// Metrics holds the Prometheus instruments of a Store.
type Metrics struct {
	Actions         *prometheus.CounterVec
	Rejected        *prometheus.CounterVec
	PersistWrites   prometheus.Counter
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
	Hydrations      *prometheus.CounterVec
	BatchFlushes    prometheus.Counter
}

// NewMetrics creates the instruments and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	const namespace = "startupmatch"
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "actions_total",
				Help:      "Store actions committed, by action name.",
			},
			[]string{"action"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "actions_rejected_total",
				Help:      "Store actions rejected by validation or transition rules.",
			},
			[]string{"action"},
		),
		PersistWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "persist_writes_total",
				Help:      "Snapshots written to durable storage.",
			},
		),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "persist_failures_total",
				Help:      "Snapshot writes skipped because of an error.",
			},
			[]string{"reason"},
		),
		PersistDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "persist_duration_seconds",
				Help:      "Time spent encoding and writing a snapshot.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		Hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "hydrations_total",
				Help:      "Store hydrations, by outcome.",
			},
			[]string{"outcome"},
		),
		BatchFlushes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "flushes_total",
				Help:      "Batched updates flushed into the store.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.Actions,
			m.Rejected,
			m.PersistWrites,
			m.PersistFailures,
			m.PersistDuration,
			m.Hydrations,
			m.BatchFlushes,
		)
	}
	return m
}
