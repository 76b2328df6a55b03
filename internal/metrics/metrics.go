package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_processed_total",
			Help: "Total number of generation jobs resolved, labeled by terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	admissionDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_denied_total",
			Help: "Count of job requests rejected for insufficient credits.",
		},
	)

	creditsDebitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_debited_total",
			Help: "Sum of credits debited at admission time, per model tier.",
		},
		[]string{"tier"},
	)

	creditsRefundedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_refunded_total",
			Help: "Sum of credits refunded after job failure, per model tier.",
		},
		[]string{"tier"},
	)

	generationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_call_latency_seconds",
			Help:    "External generation call latency distribution.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"tier", "success"},
	)

	referenceDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assembly_reference_drops_total",
			Help: "References dropped during content assembly, labeled by reason.",
		},
		[]string{"reason"}, // 'fetch', 'rasterize'
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			jobsProcessedTotal, admissionDeniedTotal,
			creditsDebitedTotal, creditsRefundedTotal,
			generationLatencySeconds, referenceDropsTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncAdmissionDenied() {
	admissionDeniedTotal.Inc()
}

func AddCreditsDebited(tier string, amount int) {
	creditsDebitedTotal.WithLabelValues(norm(tier)).Add(float64(amount))
}

func AddCreditsRefunded(tier string, amount int) {
	creditsRefundedTotal.WithLabelValues(norm(tier)).Add(float64(amount))
}

func ObserveGenerationLatency(tier string, seconds float64, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	generationLatencySeconds.WithLabelValues(norm(tier), label).Observe(seconds)
}

func IncReferenceDrop(reason string) {
	referenceDropsTotal.WithLabelValues(norm(reason)).Inc()
}
