// Package metrics provides Prometheus metrics for the vendor-match backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "vendormatch"
)

// Matching metrics
var (
	// RebuildsTotal counts match rebuilds by outcome.
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "rebuilds_total",
			Help:      "Total number of project match rebuilds",
		},
		[]string{"status"},
	)

	// MatchesCreatedTotal counts matches written by rebuilds.
	MatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "matches_created_total",
			Help:      "Total matches created by rebuilds",
		},
	)

	// RebuildDuration tracks rebuild latency per project.
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "rebuild_duration_seconds",
			Help:      "Rebuild latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Scheduler metrics
var (
	// JobRunsTotal counts scheduled job runs by job name and outcome.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total scheduled job runs",
		},
		[]string{"job", "status"},
	)

	// SlaViolationsTotal counts SLA violations flagged by the monitor.
	SlaViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sla_violations_total",
			Help:      "Total SLA violations flagged",
		},
	)
)

// Notification metrics
var (
	// NotificationFailuresTotal counts failed delivery attempts by kind.
	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "failures_total",
			Help:      "Total failed notification deliveries",
		},
		[]string{"kind"},
	)
)
