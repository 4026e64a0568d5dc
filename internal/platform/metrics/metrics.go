package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger-level counters. Registered on the default registry and exposed via
// the /metrics endpoint.
var (
	EntriesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_posted_total",
		Help: "Number of journal entries posted, by source type.",
	}, []string{"source_type"})

	EntriesReversed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_entries_reversed_total",
		Help: "Number of journal entries reversed.",
	})

	Disbursements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_disbursements_total",
		Help: "Number of loan disbursements recorded.",
	})

	Repayments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_repayments_total",
		Help: "Number of loan repayments recorded.",
	})

	AnomaliesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_anomalies_detected_total",
		Help: "Number of anomalies flagged, by severity.",
	}, []string{"severity"})

	PostingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_posting_duration_seconds",
		Help:    "Duration of auto-posting operations.",
		Buckets: prometheus.DefBuckets,
	})

	DispatcherTasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_dispatcher_tasks_failed_total",
		Help: "Number of background tasks that exhausted their retries, by kind.",
	}, []string{"kind"})
)
