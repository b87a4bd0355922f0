package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain metrics
var (
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_orders_created_total",
			Help: "Total number of orders created, by initial status",
		},
		[]string{"status"},
	)

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_order_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"from", "to", "kind"},
	)

	PlanningRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_planning_runs_total",
			Help: "Total number of material planning runs",
		},
		[]string{"trigger", "result"},
	)

	BatchesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_batches_created_total",
			Help: "Total number of production batches created",
		},
		[]string{"type"},
	)

	QCResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_qc_results_total",
			Help: "Total number of QC decisions",
		},
		[]string{"stage", "result"},
	)

	DisputesFiled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kitchen_disputes_filed_total",
			Help: "Total number of disputes filed",
		},
	)

	DisputesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_disputes_resolved_total",
			Help: "Total number of disputes resolved",
		},
		[]string{"resolution"},
	)

	CreditsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_credits_issued_amount_total",
			Help: "Total store credit amount issued",
		},
		[]string{"source"},
	)

	CommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_command_errors_total",
			Help: "Total number of failed commands, by domain code",
		},
		[]string{"command", "code"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_service_requests_total",
			Help: "Total number of requests to kitchen service",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchen_service_request_duration_seconds",
			Help:    "Duration of kitchen service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	HTTPRequestSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "kitchen_service_request_duration_summary",
			Help: "Summary of request durations with percentiles",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)
)

// Messaging metrics
var (
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_events_published_total",
			Help: "Domain events sent to Kafka by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_events_consumed_total",
			Help: "Kafka messages handled by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kitchen_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// gRPC metrics
var (
	GRPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_service_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status_code"},
	)

	GRPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchen_service_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersCreated,
		OrderTransitions,
		PlanningRuns,
		BatchesCreated,
		QCResults,
		DisputesFiled,
		DisputesResolved,
		CreditsIssued,
		CommandErrors,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestSummary,
		EventsPublished,
		EventsConsumed,
		RateLimited,
		GRPCRequestsTotal,
		GRPCRequestDuration,
	)
}
