// Package metrics holds the import counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PreviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "masareefy",
		Subsystem: "imports",
		Name:      "previews_total",
		Help:      "Uploaded files by format and outcome.",
	}, []string{"format", "outcome"})

	RowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "masareefy",
		Subsystem: "imports",
		Name:      "rows_total",
		Help:      "Classified rows by format and status.",
	}, []string{"format", "status"})

	CommittedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "masareefy",
		Subsystem: "imports",
		Name:      "committed_rows_total",
		Help:      "Rows written by the commit executor by format and result.",
	}, []string{"format", "result"})

	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "masareefy",
		Subsystem: "imports",
		Name:      "decisions_total",
		Help:      "Duplicate and quota prompts by kind and action.",
	}, []string{"kind", "action"})

	CommitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "masareefy",
		Subsystem: "imports",
		Name:      "commit_duration_seconds",
		Help:      "Wall time of commit runs.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"format"})
)
