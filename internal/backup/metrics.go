package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of backup executions by terminal status",
		},
		[]string{"status"},
	)

	uploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_uploaded_bytes_total",
			Help: "Total artifact bytes uploaded to blob storage",
		},
	)

	retentionDeletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_retention_deletions_total",
			Help: "Total backup records removed by retention enforcement",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_sweep_duration_seconds",
			Help:    "Duration of scheduler sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)
)
