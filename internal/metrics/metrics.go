// Package metrics declares the ingester's Prometheus instruments,
// grounded on jcalabro-atlas's internal/pds/metrics/metrics.go
// (package-level promauto vars under one namespace). No HTTP exposition
// surface is wired here — per SPEC_FULL.md's Non-goals, scraping
// topology is left to the operator's existing Prometheus setup;
// cmd/ingester only needs to mount promhttp.Handler on a path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bsky_event_ingester"

var (
	FirehoseEventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "firehose_events_processed_total",
			Namespace: namespace,
			Help:      "Total number of firehose events processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	FirehoseCursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name:      "firehose_cursor_us",
			Namespace: namespace,
			Help:      "Most recently processed firehose event's time_us",
		},
	)

	FirehoseReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name:      "firehose_reconnects_total",
			Namespace: namespace,
			Help:      "Total number of firehose reconnect attempts",
		},
	)

	LabelsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "labels_emitted_total",
			Namespace: namespace,
			Help:      "Total number of labels written, by negation state",
		},
		[]string{"negated"},
	)

	ReconcilerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "reconciler_runs_total",
			Namespace: namespace,
			Help:      "Total number of Reconciler runs, by outcome",
		},
		[]string{"outcome"},
	)

	ReconcilerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:      "reconciler_run_duration_seconds",
			Namespace: namespace,
			Help:      "Duration of Reconciler runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	CorrelationMapSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name:      "correlation_map_events",
			Namespace: namespace,
			Help:      "Number of events currently held in the correlation map",
		},
	)

	SubscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name:      "subscribers_active",
			Namespace: namespace,
			Help:      "Current number of connected subscribeLabels clients",
		},
	)
)
