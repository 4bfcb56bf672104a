// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theset_db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_db_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table"},
	)

	DBTransactionRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_db_transaction_retries_total",
			Help: "Transactions retried after a write conflict",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theset_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "theset_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Sync Pipeline Metrics
	SyncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_sync_operations_total",
			Help: "Sync operations by entity type, source and outcome",
		},
		[]string{"entity_type", "source", "result"}, // result: success, skipped, error
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theset_sync_duration_seconds",
			Help:    "Duration of a sync operation including reconciliation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"entity_type", "source"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_sync_last_success_timestamp",
			Help: "Unix time of the last successful sync per entity type",
		},
		[]string{"entity_type"},
	)

	ReconciledRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_reconciled_rows_total",
			Help: "Rows written by the reconciler",
		},
		[]string{"table", "action"}, // action: created, updated
	)

	// Task Queue Metrics
	QueueTasks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_queue_tasks",
			Help: "Sync tasks by status",
		},
		[]string{"status"},
	)

	QueueTaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_queue_task_outcomes_total",
			Help: "Processed sync tasks by outcome",
		},
		[]string{"outcome"}, // completed, retried, failed
	)

	QueueBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "theset_queue_batch_duration_seconds",
			Help:    "Duration of one queue batch",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// Vote Metrics
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_votes_total",
			Help: "Votes cast or removed",
		},
		[]string{"action", "voter"}, // action: cast, removed; voter: user, anonymous
	)

	VoteRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_vote_rejections_total",
			Help: "Rejected vote attempts by reason",
		},
		[]string{"reason"}, // not_found, duplicate, anonymous_limit
	)

	// Upstream API Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_upstream_requests_total",
			Help: "Requests to third-party APIs",
		},
		[]string{"service", "status_code"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theset_upstream_request_duration_seconds",
			Help:    "Third-party API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"service"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_upstream_retries_total",
			Help: "Retried third-party API requests",
		},
		[]string{"service"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_cache_misses_total",
			Help: "Cache misses",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "theset_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "theset_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "theset_websocket_messages_dropped_total",
			Help: "Messages dropped because a client send buffer was full",
		},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_authz_decisions_total",
			Help: "Authorization decisions by result",
		},
		[]string{"result"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theset_events_published_total",
			Help: "Events published on the in-process bus",
		},
		[]string{"topic"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "theset_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSync records one orchestrator run. result is success, skipped or error.
func RecordSync(entityType, source, result string, duration time.Duration) {
	SyncOperations.WithLabelValues(entityType, source, result).Inc()
	SyncDuration.WithLabelValues(entityType, source).Observe(duration.Seconds())
	if result == "success" {
		SyncLastSuccess.WithLabelValues(entityType).Set(float64(time.Now().Unix()))
	}
}

// RecordReconciled adds reconciler row counts for one table.
func RecordReconciled(table string, created, updated int) {
	if created > 0 {
		ReconciledRows.WithLabelValues(table, "created").Add(float64(created))
	}
	if updated > 0 {
		ReconciledRows.WithLabelValues(table, "updated").Add(float64(updated))
	}
}

// SetQueueDepth publishes task counts by status.
func SetQueueDepth(counts map[string]int) {
	for _, status := range []string{"pending", "processing", "completed", "failed"} {
		QueueTasks.WithLabelValues(status).Set(float64(counts[status]))
	}
}

// RecordTaskOutcome counts a processed task.
func RecordTaskOutcome(outcome string) {
	QueueTaskOutcomes.WithLabelValues(outcome).Inc()
}

// RecordVote counts a cast or removed vote.
func RecordVote(action string, anonymous bool) {
	voter := "user"
	if anonymous {
		voter = "anonymous"
	}
	VotesTotal.WithLabelValues(action, voter).Inc()
}

// RecordVoteRejection counts a rejected vote attempt.
func RecordVoteRejection(reason string) {
	VoteRejections.WithLabelValues(reason).Inc()
}

// RecordUpstreamRequest records a third-party call. status 0 means transport failure.
func RecordUpstreamRequest(service string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(service, code).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordUpstreamRetry counts a retried third-party call.
func RecordUpstreamRetry(service string) {
	UpstreamRetries.WithLabelValues(service).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordEventPublished counts a published bus event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordAuthzDecision counts an allow or deny decision.
func RecordAuthzDecision(allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	AuthzDecisions.WithLabelValues(result).Inc()
}
