package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	queueEnqueuesTotal     *prometheus.CounterVec
	queueClaimsTotal       *prometheus.CounterVec
	queueResolutionsTotal  *prometheus.CounterVec
	anomalyDetectionsTotal *prometheus.CounterVec
	organizerFlagsTotal    *prometheus.CounterVec
	trustRecomputesTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the
// moderation engine and the admin HTTP surface.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		queueEnqueuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_queue_enqueues_total",
			Help: "Moderation queue enqueue operations, partitioned by created/merged outcome.",
		}, []string{"outcome"})

		queueClaimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_queue_claims_total",
			Help: "Claim attempts on moderation queue items, partitioned by won/lost.",
		}, []string{"result"})

		queueResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_queue_resolutions_total",
			Help: "Resolved moderation queue items, partitioned by resolution.",
		}, []string{"resolution"})

		anomalyDetectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anomaly_detections_total",
			Help: "Positive anomaly detections, partitioned by pattern.",
		}, []string{"pattern"})

		organizerFlagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "organizer_workflow_actions_total",
			Help: "Organizer flag/unflag/revoke workflow actions.",
		}, []string{"action"})

		trustRecomputesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trust_recomputes_total",
			Help: "Trust score recomputations, partitioned by subject kind.",
		}, []string{"kind"})

		prometheus.MustRegister(
			adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			queueEnqueuesTotal, queueClaimsTotal, queueResolutionsTotal,
			anomalyDetectionsTotal, organizerFlagsTotal, trustRecomputesTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// QueueEnqueues exposes the enqueue outcome counter.
func QueueEnqueues() *prometheus.CounterVec {
	RegisterMetrics()
	return queueEnqueuesTotal
}

// QueueClaims exposes the claim race counter.
func QueueClaims() *prometheus.CounterVec {
	RegisterMetrics()
	return queueClaimsTotal
}

// QueueResolutions exposes the resolution counter.
func QueueResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return queueResolutionsTotal
}

// AnomalyDetections exposes the anomaly detection counter.
func AnomalyDetections() *prometheus.CounterVec {
	RegisterMetrics()
	return anomalyDetectionsTotal
}

// OrganizerFlags exposes the organizer workflow action counter.
func OrganizerFlags() *prometheus.CounterVec {
	RegisterMetrics()
	return organizerFlagsTotal
}

// TrustRecomputes exposes the trust recomputation counter.
func TrustRecomputes() *prometheus.CounterVec {
	RegisterMetrics()
	return trustRecomputesTotal
}
